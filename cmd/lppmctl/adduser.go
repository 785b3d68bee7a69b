package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/helper"
)

var errNIMRequired = errors.New("nim is required for mahasiswa")

// addUser updates or creates a model.User
func (cli *commandLine) addUser(ctx context.Context, email, name, role, nim, pwd string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToLower(strings.TrimSpace(role))
	nim = strings.TrimSpace(nim)

	if !model.IsValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}
	if role == model.RoleMahasiswa && nim == "" {
		return errNIMRequired
	}

	hash, err := helper.HashPassword(pwd)
	if err != nil {
		return err
	}

	usr, err := cli.repos.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		usr = &model.User{Email: email}
	}
	usr.FullName = strings.TrimSpace(name)
	usr.Role = role
	usr.NIM = nim
	usr.PasswordHash = hash
	usr.IsActive = true

	if usr.ID == uuid.Nil {
		err = cli.repos.Users.Create(ctx, usr)
	} else {
		err = cli.repos.Users.Update(ctx, usr)
	}
	if err != nil {
		return err
	}
	logger.Printf("user %s (%s) saved", usr.Email, usr.Role)
	return nil
}

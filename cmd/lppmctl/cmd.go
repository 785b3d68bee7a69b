package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
	"github.com/suhendararyadi/lppm-iaipi-mhs/db"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = db.Migrate        // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	repos *repo.Repositories
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - create or update the database tables and indexes")
	fmt.Println("  adduser -email EMAIL -name NAME -role mahasiswa|dpl|lppm [-nim NIM] - create or update a user, the password is prompted next")
	fmt.Println("  seed -file FILE - insert missing program studi and bidang penelitian names from a YAML file")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email, used to log in.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", "", "One of mahasiswa, dpl or lppm.")
	addUserNIM := addUserCmd.String("nim", "", "Student number, required for mahasiswa.")

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "seed.yaml", "YAML file with prodi and bidang lists.")

	switch args[1] {
	case "migrate":
		return migrateFunc(ctx)
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(ctx, *addUserEmail, *addUserName, *addUserRole, *addUserNIM, string(pwd))
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(ctx, *seedFile)
	default:
		cli.printUsage()
		return errHelp
	}
}

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

// seedFile is the layout of the YAML given to `seed -file`.
type seedFile struct {
	Prodi  []string `yaml:"prodi"`
	Bidang []string `yaml:"bidang"`
}

func readSeed(path string) (seedFile, error) {
	var sf seedFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return sf, errors.Wrap(err, "read seed file")
	}
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return sf, errors.Wrap(err, "parse seed file")
	}
	return sf, nil
}

// seed inserts every name not yet present; existing rows are left alone.
func (cli *commandLine) seed(ctx context.Context, path string) error {
	sf, err := readSeed(path)
	if err != nil {
		return err
	}

	prodi, err := cli.repos.Prodi.FindAll(ctx)
	if err != nil {
		return err
	}
	have := namesOf(prodi, func(p model.ProgramStudi) string { return p.Name })
	added := 0
	for _, name := range missing(sf.Prodi, have) {
		now := time.Now()
		p := model.ProgramStudi{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
		if err := cli.repos.Prodi.Create(ctx, &p); err != nil {
			return errors.Wrapf(err, "seed prodi %q", name)
		}
		added++
	}
	logger.Printf("prodi: %d added", added)

	bidang, err := cli.repos.Bidang.FindAll(ctx)
	if err != nil {
		return err
	}
	have = namesOf(bidang, func(b model.BidangPenelitian) string { return b.Name })
	added = 0
	for _, name := range missing(sf.Bidang, have) {
		now := time.Now()
		b := model.BidangPenelitian{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}
		if err := cli.repos.Bidang.Create(ctx, &b); err != nil {
			return errors.Wrapf(err, "seed bidang %q", name)
		}
		added++
	}
	logger.Printf("bidang: %d added", added)
	return nil
}

func namesOf[T any](items []T, name func(T) string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[strings.ToLower(strings.TrimSpace(name(it)))] = true
	}
	return out
}

// missing returns the trimmed names absent from have, once each.
func missing(names []string, have map[string]bool) []string {
	var out []string
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || have[key] {
			continue
		}
		have[key] = true
		out = append(out, n)
	}
	return out
}

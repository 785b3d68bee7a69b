package main

import (
	"context"
	"log"
	"os"

	"github.com/suhendararyadi/lppm-iaipi-mhs/config"
	"github.com/suhendararyadi/lppm-iaipi-mhs/db"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "LPPMCTL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	config.LoadEnv()
	ctx := context.Background()

	repos, err := db.Connect(ctx)
	errAndDie(err)

	cli := commandLine{repos: repos}
	err = cli.run(ctx, os.Args)
	db.Close(ctx)
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

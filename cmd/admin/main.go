package main

import (
	"context"
	"errors"
	"log"
	"os"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/app"
	"terminal-terrace/testmaker/internal/database"
	"terminal-terrace/testmaker/internal/reconcile"
)

var logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds)

func main() {
	configPath := os.Getenv("TESTMAKER_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	conf := config.MustLoad(configPath)

	slogger, closer, err := conf.Log.NewLogger()
	errAndDie(err)
	defer closer.Close()

	res, err := database.Init(context.Background(), conf)
	errAndDie(err)

	a := app.New(conf, res, slogger)
	cli := commandLine{
		users: a.Users,
		sweep: func(ctx context.Context, dryRun bool) (reconcile.Report, error) {
			return a.Sweeper.WithDryRun(dryRun || conf.Reconcile.DryRun).Run(ctx)
		},
		out: os.Stdout,
	}

	err = cli.run(os.Args)
	res.Close()
	if err != nil {
		if !errors.Is(err, errHelp) {
			logger.Printf("error: %s", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}

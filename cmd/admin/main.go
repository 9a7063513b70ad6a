package main

import (
	"fmt"
	"os"

	"github.com/ovaphlow/cellgroup/internal/cellgroup"
	"github.com/ovaphlow/cellgroup/internal/config"
	"github.com/ovaphlow/cellgroup/internal/member"
	"github.com/ovaphlow/cellgroup/internal/user"
	"github.com/ovaphlow/cellgroup/pkg/database"
	"github.com/ovaphlow/cellgroup/pkg/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar().Named("admin")

	db, err := database.Open(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	users := user.NewUserService(db, nil, user.BcryptHasher{Cost: cfg.BcryptCost})
	cli := commandLine{
		db:      db,
		logger:  sugar,
		users:   users,
		groups:  cellgroup.NewService(db, nil, users),
		members: member.NewService(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			sugar.Errorf("error: %v", err)
		}
		lg.Sync()
		os.Exit(1)
	}
}

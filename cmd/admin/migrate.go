package main

import "context"

func (cli *commandLine) migrate(command string) error {
	return migrateFunc(context.Background(), cli.db, command, cli.logger)
}

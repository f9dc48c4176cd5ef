package main

import (
	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/storage/database"
)

func (cli *commandLine) migrate(args []string) error {
	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	return gooseRunFunc(args[0], cli.db, rest...)
}

func (cli *commandLine) createDB() error {
	return database.CreateIfNotExist(core.Conf)
}

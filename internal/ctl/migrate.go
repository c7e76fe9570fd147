package ctl

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"santiye/internal/storage"
)

type migrateCmd struct {
	output
	dbFlag
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `santiyectl migrate [-db <path>]

  Brings the SQLite schema up to date and prints the resulting version.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	c.setDBFlag(f)
}

func (c *migrateCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	repo, err := c.open()
	if err != nil {
		return failf("%v", err)
	}
	repo.Close()

	version, dirty, err := storage.SchemaVersion(c.dbPath)
	if err != nil {
		return failf("%v", err)
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(c.w(), "schema version %d (%s)\n", version, state)
	return subcommands.ExitSuccess
}

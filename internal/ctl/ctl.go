// Package ctl implements the santiyectl subcommands: offline invoice
// arithmetic, the check calendar, price matrix export and database upkeep.
package ctl

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"santiye/internal/config"
	"santiye/internal/log"
	"santiye/internal/storage"
)

// Commands lists every subcommand in registration order.
var Commands = []subcommands.Command{
	&totalsCmd{},
	&dueCmd{},
	&checksCmd{},
	&matrixCmd{},
	&migrateCmd{},
	&syncCmd{},
}

// output is embedded by commands that print; tests swap the writer.
type output struct {
	out io.Writer
}

func (o *output) w() io.Writer {
	if o.out == nil {
		return os.Stdout
	}
	return o.out
}

func (o *output) table() *tabwriter.Writer {
	return tabwriter.NewWriter(o.w(), 0, 4, 2, ' ', 0)
}

// dbFlag is embedded by commands that open the database.
type dbFlag struct {
	dbPath string
}

func (d *dbFlag) setDBFlag(f *flag.FlagSet) {
	f.StringVar(&d.dbPath, "db", config.Load().SQLiteDBPath, "SQLite database path (defaults to SQLITE_DB_PATH).")
}

func (d *dbFlag) open() (*storage.SQLiteRepository, error) {
	logger := log.New(log.Config{Level: log.ParseLevel("error"), Component: log.ComponentCLI, Output: os.Stderr})
	return storage.NewSQLiteRepository(d.dbPath, logger)
}

func failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return subcommands.ExitFailure
}

func usageError(f *flag.FlagSet, msg string) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, msg)
	f.Usage()
	return subcommands.ExitUsageError
}

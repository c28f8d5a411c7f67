package main

import (
	"context"
	"flag"
	"fmt"

	"portfolio/migrations"

	"github.com/google/subcommands"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return "migrate\n\n  Applies every pending migration and prints the resulting schema version.\n"
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return fail("%v", err)
	}

	sqlDB, err := migrations.OpenSQLDB(cfg.Databases.SQL.DSN())
	if err != nil {
		return fail("%v", err)
	}
	defer sqlDB.Close()

	if err := migrations.Up(sqlDB); err != nil {
		return fail("%v", err)
	}
	version, err := migrations.Version(sqlDB)
	if err != nil {
		return fail("%v", err)
	}
	fmt.Printf("Schema at version %d\n", version)
	return subcommands.ExitSuccess
}

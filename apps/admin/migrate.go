package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/findmytutor/findmytutor/storage/database"
	mongorepos "github.com/findmytutor/findmytutor/storage/database/mongodb"
)

var (
	// mockable
	migrateUpFunc     = database.Migrate
	listIndexesFunc   = database.Indexes
	migrateLegacyFunc = mongorepos.MigrateLegacyTuitions
)

func (cli *commandLine) migrate(command string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Database.Timeout)
	defer cancel()

	switch command {
	case "up":
		if err := migrateUpFunc(ctx, cli.db); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "indexes up to date")
	case "status":
		names, err := listIndexesFunc(ctx, cli.db)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cli.out, name)
		}
	case "legacy":
		n, err := migrateLegacyFunc(ctx, cli.db)
		if err != nil {
			return errors.Wrapf(err, "%d tutors migrated before failing", n)
		}
		fmt.Fprintf(cli.out, "%d tutors migrated\n", n)
	default:
		return fmt.Errorf("%q: no such command", command)
	}
	return nil
}

package system

import (
	"fmt"
	"io/fs"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/migration"
	"github.com/evvtrack/evvtrack/internal/storage/postgres"
	"github.com/evvtrack/evvtrack/internal/storage/sqlite"
	"github.com/evvtrack/evvtrack/migrations"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	defer ctx.Store.Close()

	// Both backends embed their migrations under a per-driver directory
	var runner *migration.Runner
	switch store := ctx.Store.(type) {
	case *sqlite.Store:
		subFS, err := fs.Sub(migrations.FS, "sqlite")
		if err != nil {
			return fmt.Errorf("failed to open embedded migrations: %w", err)
		}
		runner = migration.NewRunner(store.GetDB(), subFS)
	case *postgres.Store:
		subFS, err := fs.Sub(migrations.FS, "postgres")
		if err != nil {
			return fmt.Errorf("failed to open embedded migrations: %w", err)
		}
		runner = migration.NewRunner(store.GetDB(), subFS)
	default:
		return fmt.Errorf("unsupported storage backend")
	}

	count, err := runner.ApplyMigrations(func(msg string) {
		fmt.Println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}

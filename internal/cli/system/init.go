package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/storage"
	"github.com/evvtrack/evvtrack/internal/storage/postgres"
	"github.com/evvtrack/evvtrack/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting the existing database before initialization."`
	Source string `help:"Source database path or connection string to migrate data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		dbPath := ctx.Store.GetConfigPath()
		if c.Source != "" {
			// Don't delete if it's also the source
			absDbPath, err := filepath.Abs(dbPath)
			if err == nil {
				dbPath = absDbPath
			}
			absSource, err := filepath.Abs(c.Source)
			if err == nil && absSource == dbPath {
				return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
			}
		}
		if _, err := os.Stat(dbPath); err == nil {
			// Close before deleting to avoid file locking issues
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized evvtrack storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migration completed successfully!")
	}

	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context, sourcePath string) error {
	var sourceStore storage.Provider
	if strings.HasPrefix(sourcePath, "postgres://") || strings.HasPrefix(sourcePath, "postgresql://") {
		if valid, err := postgres.ValidateConnString(sourcePath); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return err
		}
		sourceStore = postgres.New(sourcePath)
	} else {
		sourceStore = sqlite.NewStore(sourcePath)
	}

	if err := sourceStore.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer sourceStore.Close()

	fmt.Println("  Migrating settings...")
	settings, err := sourceStore.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := ctx.Store.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	fmt.Println("  Migrating caregivers...")
	caregivers, err := sourceStore.GetAllCaregivers()
	if err != nil {
		return fmt.Errorf("failed to get caregivers from source: %w", err)
	}
	for _, cg := range caregivers {
		if err := ctx.Store.AddCaregiver(cg); err != nil {
			return fmt.Errorf("failed to add caregiver %s: %w", cg.ID, err)
		}
	}
	fmt.Printf("    Migrated %d caregivers\n", len(caregivers))

	fmt.Println("  Migrating availability...")
	availability, err := sourceStore.GetAllAvailability()
	if err != nil {
		return fmt.Errorf("failed to get availability from source: %w", err)
	}
	slotCount := 0
	for _, slots := range availability {
		for _, slot := range slots {
			if err := ctx.Store.SaveAvailability(slot); err != nil {
				return fmt.Errorf("failed to save availability for %s: %w", slot.CaregiverID, err)
			}
			slotCount++
		}
	}
	fmt.Printf("    Migrated %d availability slots\n", slotCount)

	fmt.Println("  Migrating clients...")
	clients, err := sourceStore.GetAllClients()
	if err != nil {
		return fmt.Errorf("failed to get clients from source: %w", err)
	}
	for _, cl := range clients {
		if err := ctx.Store.AddClient(cl); err != nil {
			return fmt.Errorf("failed to add client %s: %w", cl.ID, err)
		}
	}
	fmt.Printf("    Migrated %d clients\n", len(clients))

	fmt.Println("  Migrating visits...")
	visits, err := sourceStore.GetAllVisits()
	if err != nil {
		return fmt.Errorf("failed to get visits from source: %w", err)
	}
	for _, v := range visits {
		if err := ctx.Store.AddVisit(v); err != nil {
			return fmt.Errorf("failed to add visit %s: %w", v.ID, err)
		}
	}
	fmt.Printf("    Migrated %d visits\n", len(visits))

	fmt.Println("  Migrating EVV sessions...")
	sessionCount := 0
	for _, v := range visits {
		session, err := sourceStore.GetSession(v.ID)
		if err != nil {
			continue // visit was never clocked into
		}
		if err := ctx.Store.SaveSession(session); err != nil {
			return fmt.Errorf("failed to save session for visit %s: %w", v.ID, err)
		}
		sessionCount++
	}
	fmt.Printf("    Migrated %d sessions\n", sessionCount)

	fmt.Println("  Migrating alert overrides...")
	overrides, err := sourceStore.GetAlertOverrides()
	if err != nil {
		return fmt.Errorf("failed to get alert overrides from source: %w", err)
	}
	for _, o := range overrides {
		if err := ctx.Store.SaveAlertOverride(o); err != nil {
			return fmt.Errorf("failed to save alert override %s: %w", o.Fingerprint, err)
		}
	}
	fmt.Printf("    Migrated %d alert overrides\n", len(overrides))

	return nil
}

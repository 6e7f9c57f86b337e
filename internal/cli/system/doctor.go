package system

import (
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/keyring"
	"github.com/evvtrack/evvtrack/internal/migration"
	"github.com/evvtrack/evvtrack/internal/notifier"
	"github.com/evvtrack/evvtrack/internal/storage/postgres"
	"github.com/evvtrack/evvtrack/internal/storage/sqlite"
	"github.com/evvtrack/evvtrack/migrations"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := false

	// Check 1: DB reachable
	if err := checkDBReachable(ctx); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	// Check 2: Schema version valid (only if DB is reachable)
	if dbReachable {
		if err := checkSchemaVersion(ctx); err != nil {
			fmt.Printf("❌ Schema version: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Schema version: OK\n")
		}
	} else {
		fmt.Printf("⊘ Schema version: SKIPPED (database not reachable)\n")
	}

	// Check 3: Settings sanity (only if DB is reachable)
	if dbReachable {
		if err := checkSettingsSanity(ctx); err != nil {
			fmt.Printf("❌ Settings sanity: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Settings sanity: OK\n")
		}
	} else {
		fmt.Printf("⊘ Settings sanity: SKIPPED (database not reachable)\n")
	}

	// Check 4: Visit integrity (only if DB is reachable)
	if dbReachable {
		if err := checkVisitIntegrity(ctx); err != nil {
			fmt.Printf("❌ Visit integrity: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Visit integrity: OK\n")
		}
	} else {
		fmt.Printf("⊘ Visit integrity: SKIPPED (database not reachable)\n")
	}

	// Check 5: Session integrity (only if DB is reachable)
	if dbReachable {
		if err := checkSessionIntegrity(ctx); err != nil {
			fmt.Printf("❌ Session integrity: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Session integrity: OK\n")
		}
	} else {
		fmt.Printf("⊘ Session integrity: SKIPPED (database not reachable)\n")
	}

	// Check 6: Clock/timezone sanity
	if err := checkClockTimezone(); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	// Check 7: OS keyring (warning only; SQLite deployments don't need it)
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⚠ OS keyring: WARNING\n")
		fmt.Printf("   Keyring unavailable; PostgreSQL connection strings cannot be stored securely\n")
	}

	// Check 8: Notification agent (warning only)
	if err := checkAgent(); err != nil {
		fmt.Printf("⚠ Notification agent: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Notification agent: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func storeDB(ctx *cli.Context) (*sql.DB, string) {
	switch store := ctx.Store.(type) {
	case *sqlite.Store:
		return store.GetDB(), "sqlite"
	case *postgres.Store:
		return store.GetDB(), "postgres"
	}
	return nil, ""
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	db, _ := storeDB(ctx)
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	db, driver := storeDB(ctx)
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	subFS, err := fs.Sub(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	runner := migration.NewRunner(db, subFS)

	currentVersion, err := runner.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	latestVersion, err := runner.LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest schema version: %w", err)
	}

	if currentVersion > latestVersion {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", currentVersion, latestVersion)
	}
	if currentVersion < latestVersion {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'evvtrack migrate')", currentVersion, latestVersion)
	}
	return nil
}

func checkSettingsSanity(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if settings.GeofenceRadiusMi <= 0 {
		return fmt.Errorf("geofence radius must be positive (got %g)", settings.GeofenceRadiusMi)
	}
	if settings.OvertimeRiskRatio > settings.OvertimeHardRatio {
		return fmt.Errorf("overtime risk ratio (%g) exceeds hard ratio (%g)", settings.OvertimeRiskRatio, settings.OvertimeHardRatio)
	}
	if settings.TravelSpeedMph <= 0 {
		return fmt.Errorf("travel speed must be positive (got %g)", settings.TravelSpeedMph)
	}
	if settings.NoShowGraceMin < 0 {
		return fmt.Errorf("no-show grace must not be negative (got %d)", settings.NoShowGraceMin)
	}
	if settings.Timezone != "" && settings.Timezone != "Local" {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
		}
	}
	return nil
}

func checkVisitIntegrity(ctx *cli.Context) error {
	db, _ := storeDB(ctx)
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Inverted scheduled windows should be impossible past validation
	var invertedCount int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM visits
		WHERE scheduled_end <= scheduled_start
	`).Scan(&invertedCount)
	if err != nil {
		return fmt.Errorf("failed to check visit windows: %w", err)
	}
	if invertedCount > 0 {
		return fmt.Errorf("found %d visits with inverted scheduled windows", invertedCount)
	}

	var orphanedVisits int
	err = db.QueryRow(`
		SELECT COUNT(*)
		FROM visits v
		LEFT JOIN clients c ON v.client_id = c.id
		WHERE c.id IS NULL
	`).Scan(&orphanedVisits)
	if err != nil {
		return fmt.Errorf("failed to check visit clients: %w", err)
	}
	if orphanedVisits > 0 {
		return fmt.Errorf("found %d visits referencing non-existent clients", orphanedVisits)
	}
	return nil
}

func checkSessionIntegrity(ctx *cli.Context) error {
	db, _ := storeDB(ctx)
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	var orphanedSessions int
	err := db.QueryRow(`
		SELECT COUNT(*)
		FROM evv_sessions s
		LEFT JOIN visits v ON s.visit_id = v.id
		WHERE v.id IS NULL
	`).Scan(&orphanedSessions)
	if err != nil {
		return fmt.Errorf("failed to check orphaned sessions: %w", err)
	}
	if orphanedSessions > 0 {
		return fmt.Errorf("found %d sessions referencing non-existent visits", orphanedSessions)
	}

	var inconsistentSessions int
	err = db.QueryRow(`
		SELECT COUNT(*)
		FROM evv_sessions
		WHERE state = 'completed' AND (clock_in_at IS NULL OR clock_out_at IS NULL)
	`).Scan(&inconsistentSessions)
	if err != nil {
		return fmt.Errorf("failed to check completed sessions: %w", err)
	}
	if inconsistentSessions > 0 {
		return fmt.Errorf("found %d completed sessions missing clock timestamps", inconsistentSessions)
	}
	return nil
}

func checkClockTimezone() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkAgent() error {
	if _, err := notifier.AgentStatus(); err != nil {
		return fmt.Errorf("agent not reachable: %v (reminders will not be delivered)", err)
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/cli/conflicts"
	"github.com/evvtrack/evvtrack/internal/cli/directory"
	"github.com/evvtrack/evvtrack/internal/cli/settings"
	"github.com/evvtrack/evvtrack/internal/cli/system"
	"github.com/evvtrack/evvtrack/internal/cli/verification"
	"github.com/evvtrack/evvtrack/internal/cli/visits"
	"github.com/evvtrack/evvtrack/internal/constants"
	apperrors "github.com/evvtrack/evvtrack/internal/errors"
	"github.com/evvtrack/evvtrack/internal/keyring"
	"github.com/evvtrack/evvtrack/internal/logger"
	"github.com/evvtrack/evvtrack/internal/storage"
	"github.com/evvtrack/evvtrack/internal/storage/postgres"
	"github.com/evvtrack/evvtrack/internal/storage/sqlite"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Database path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use environment variables, .pgpass, or the OS keyring instead." type:"string" default:"~/.config/evvtrack/evvtrack.db"`
	Debug   bool   `help:"Enable debug logging."`

	Init    system.InitCmd    `cmd:"" help:"Initialize evvtrack storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Visit   struct {
		Add        visits.VisitAddCmd        `cmd:"" help:"Schedule a new visit."`
		List       visits.VisitListCmd       `cmd:"" help:"List visits."`
		Assign     visits.VisitAssignCmd     `cmd:"" help:"Assign a caregiver to a visit."`
		Rank       visits.VisitRankCmd       `cmd:"" help:"Rank eligible caregivers for a visit."`
		Reschedule visits.VisitRescheduleCmd `cmd:"" help:"Move a visit to a new window."`
		Cancel     visits.VisitCancelCmd     `cmd:"" help:"Cancel a visit."`
	} `cmd:"" help:"Manage visits."`
	Caregiver struct {
		Add          directory.CaregiverAddCmd     `cmd:"" help:"Add a caregiver."`
		List         directory.CaregiverListCmd    `cmd:"" help:"List caregivers."`
		Availability directory.AvailabilitySetCmd  `cmd:"" help:"Set a caregiver's weekly availability."`
		Schedule     directory.AvailabilityListCmd `cmd:"" help:"Show a caregiver's weekly availability."`
	} `cmd:"" help:"Manage caregivers."`
	Client struct {
		Add  directory.ClientAddCmd  `cmd:"" help:"Add a client."`
		List directory.ClientListCmd `cmd:"" help:"List clients."`
	} `cmd:"" help:"Manage clients."`
	Conflicts struct {
		Detect  conflicts.DetectCmd  `cmd:"" default:"1" help:"Detect scheduling conflicts."`
		Resolve conflicts.ResolveCmd `cmd:"" help:"Resolve an alert by id: reassign, reschedule, or override."`
	} `cmd:"" help:"Detect and resolve scheduling conflicts."`
	Evv       struct {
		ClockIn    verification.ClockInCmd    `cmd:"" name:"clock-in" help:"Clock in to a visit with location verification."`
		ClockOut   verification.ClockOutCmd   `cmd:"" name:"clock-out" help:"Clock out of a visit."`
		BreakStart verification.BreakStartCmd `cmd:"" name:"break-start" help:"Start a break."`
		BreakEnd   verification.BreakEndCmd   `cmd:"" name:"break-end" help:"End a break."`
		Task       verification.TaskToggleCmd `cmd:"" help:"Mark a checklist task complete or not."`
		NoShow     verification.NoShowCmd     `cmd:"" name:"no-show" help:"Mark a visit as a no-show."`
		Status     verification.StatusCmd     `cmd:"" help:"Show a visit's verification status."`
		Watch      verification.WatchCmd      `cmd:"" help:"Watch a location source against a visit's geofence."`
	} `cmd:"" help:"Electronic visit verification."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (password masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage database credentials."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Notify   system.NotifyCmd     `cmd:"" hidden:"" help:"Send due visit reminders (used by the OS scheduler)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("evvtrack"),
		kong.Description("Visit scheduling and electronic visit verification for in-home care"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.3.0"},
	)

	config := expandPath(CLI.Config)

	// With the stock config, a connection string stored in the OS keyring
	// selects the shared PostgreSQL deployment
	if CLI.Config == constants.DefaultConfigPath {
		if connStr, err := keyring.GetConnectionString(); err == nil {
			config = connStr
		}
	}

	var store storage.Provider
	if strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://") {
		if valid, err := postgres.ValidateConnString(config); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				fmt.Fprintf(os.Stderr, "❌ Error: PostgreSQL connection strings with embedded credentials are NOT allowed.\n")
				fmt.Fprintf(os.Stderr, "       Use one of these secure alternatives:\n")
				fmt.Fprintf(os.Stderr, "       1. OS keyring:    evvtrack keyring set \"postgresql://user@host:5432/evvtrack\"\n")
				fmt.Fprintf(os.Stderr, "       2. Environment:   export PGPASSWORD=... with a password-free connection string\n")
				fmt.Fprintf(os.Stderr, "       3. .pgpass file:  Use a connection string without a password\n")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		store = postgres.New(config)
	} else {
		store = sqlite.NewStore(config)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: logDir(config),
	}); err != nil {
		apperrors.Fatalf("failed to initialize logging: %v", err)
	}

	appCtx := &cli.Context{
		Store: store,
	}

	if err := ctx.Run(appCtx); err != nil {
		apperrors.Fatal(err)
	}
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

// logDir picks where log files live: next to the SQLite database, or the
// user config dir for PostgreSQL deployments.
func logDir(config string) string {
	if strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://") {
		if dir, err := os.UserConfigDir(); err == nil {
			return filepath.Join(dir, "evvtrack")
		}
		return "."
	}
	return filepath.Dir(config)
}

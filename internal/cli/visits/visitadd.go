package visits

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/evvtrack/evvtrack/internal/cli"
	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/timeutil"
)

type VisitAddCmd struct {
	Client      string   `short:"c" help:"Client ID."`
	Date        string   `short:"d" help:"Visit date (YYYY-MM-DD)."`
	Start       string   `short:"s" help:"Start time (HH:MM)."`
	End         string   `short:"e" help:"End time (HH:MM)."`
	Caregiver   string   `short:"g" help:"Caregiver ID to assign immediately."`
	Task        []string `short:"t" help:"Care task, repeatable. Suffix ':required' to gate clock-out (e.g. 'Medication reminder:required')."`
	Priority    string   `short:"p" help:"Priority (low|medium|high)." default:"medium"`
	Recurrence  string   `short:"r" help:"Recurrence pattern (none|daily|weekly|biweekly|monthly)." default:"none"`
	Count       int      `short:"n" help:"Number of occurrences to expand for recurring visits." default:"1"`
	Interactive bool     `short:"i" help:"Fill in the visit with a guided form instead of flags."`
}

func (c *VisitAddCmd) Validate() error {
	if !c.Interactive {
		if c.Client == "" || c.Date == "" || c.Start == "" || c.End == "" {
			return fmt.Errorf("--client, --date, --start, and --end are required (or use --interactive)")
		}
	}
	switch constants.Priority(c.Priority) {
	case constants.PriorityLow, constants.PriorityMedium, constants.PriorityHigh:
	default:
		return fmt.Errorf("priority must be low, medium, or high")
	}
	switch constants.RecurrenceType(c.Recurrence) {
	case constants.RecurrenceNone, constants.RecurrenceDaily, constants.RecurrenceWeekly,
		constants.RecurrenceBiweekly, constants.RecurrenceMonthly:
	default:
		return fmt.Errorf("recurrence must be none, daily, weekly, biweekly, or monthly")
	}
	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1")
	}
	if constants.RecurrenceType(c.Recurrence) == constants.RecurrenceNone && c.Count > 1 {
		return fmt.Errorf("count requires a recurrence pattern")
	}
	return nil
}

func (c *VisitAddCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if c.Interactive {
		if err := c.prompt(ctx); err != nil {
			return err
		}
	}

	client, err := ctx.Directory().Client(c.Client)
	if err != nil {
		return fmt.Errorf("failed to get client: %w", err)
	}
	if c.Caregiver != "" {
		if _, err := ctx.Directory().Caregiver(c.Caregiver); err != nil {
			return fmt.Errorf("failed to get caregiver: %w", err)
		}
	}

	start, end, err := cli.ParseWindow(c.Date, c.Start, c.End)
	if err != nil {
		return err
	}

	rec := constants.RecurrenceType(c.Recurrence)

	// Recurring visits are expanded into independent rows up front so the
	// detector and the matcher see every occurrence.
	var created []models.Visit
	for i := 0; i < c.Count; i++ {
		visit := models.Visit{
			ID:                uuid.New().String(),
			ClientID:          client.ID,
			CaregiverID:       c.Caregiver,
			ScheduledStart:    start,
			ScheduledEnd:      end,
			Status:            constants.VisitScheduled,
			Tasks:             cli.ParseTasks(c.Task),
			Recurrence:        rec,
			Priority:          constants.Priority(c.Priority),
			ClientLocation:    client.Location,
			ClientPreferences: client.PreferenceTags,
			CreatedAt:         time.Now(),
		}
		if err := visit.Validate(); err != nil {
			return err
		}
		if err := ctx.Store.AddVisit(visit); err != nil {
			return fmt.Errorf("failed to add visit: %w", err)
		}
		created = append(created, visit)

		next := timeutil.NextOccurrence(start, rec)
		end = end.Add(next.Sub(start))
		start = next
	}

	for _, v := range created {
		fmt.Printf("Added visit %s for %s (%s)\n", v.ID, client.Name, cli.FormatWindow(v.ScheduledStart, v.ScheduledEnd))
	}

	alerts, err := ctx.Resolution().Detect(time.Now())
	if err != nil {
		return fmt.Errorf("failed to run conflict detection: %w", err)
	}
	cli.PrintAlerts(alerts)
	return nil
}

// prompt fills the command's fields from a guided form. Flag values act as
// prefills so a partially specified command only asks for the rest.
func (c *VisitAddCmd) prompt(ctx *cli.Context) error {
	clients, err := ctx.Directory().Clients()
	if err != nil {
		return fmt.Errorf("failed to get clients: %w", err)
	}
	if len(clients) == 0 {
		return fmt.Errorf("no clients on file; add one with 'evvtrack client add' first")
	}

	clientOpts := make([]huh.Option[string], len(clients))
	for i, cl := range clients {
		clientOpts[i] = huh.NewOption(cl.Name, cl.ID)
	}

	var tasks string
	if len(c.Task) > 0 {
		tasks = strings.Join(c.Task, ", ")
	}
	count := strconv.Itoa(c.Count)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Client").
				Options(clientOpts...).
				Value(&c.Client),
			huh.NewInput().
				Title("Date (YYYY-MM-DD)").
				Value(&c.Date).
				Validate(func(s string) error {
					_, err := time.ParseInLocation(constants.DateFormat, s, time.Local)
					return err
				}),
			huh.NewInput().
				Title("Start (HH:MM)").
				Value(&c.Start).
				Validate(validClock),
			huh.NewInput().
				Title("End (HH:MM)").
				Value(&c.End).
				Validate(validClock),
			huh.NewInput().
				Title("Tasks").
				Description("Comma separated; suffix ':required' to gate clock-out").
				Value(&tasks),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("Low", string(constants.PriorityLow)),
					huh.NewOption("Medium", string(constants.PriorityMedium)),
					huh.NewOption("High", string(constants.PriorityHigh)),
				).
				Value(&c.Priority),
			huh.NewSelect[string]().
				Title("Recurrence").
				Options(
					huh.NewOption("None", string(constants.RecurrenceNone)),
					huh.NewOption("Daily", string(constants.RecurrenceDaily)),
					huh.NewOption("Weekly", string(constants.RecurrenceWeekly)),
					huh.NewOption("Biweekly", string(constants.RecurrenceBiweekly)),
					huh.NewOption("Monthly", string(constants.RecurrenceMonthly)),
				).
				Value(&c.Recurrence),
			huh.NewInput().
				Title("Occurrences").
				Description("For recurring visits").
				Value(&count).
				Validate(func(s string) error {
					i, err := strconv.Atoi(s)
					if err != nil {
						return err
					}
					if i < 1 {
						return fmt.Errorf("occurrences must be at least 1")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.Run(); err != nil {
		return err
	}

	c.Task = nil
	for _, t := range strings.Split(tasks, ",") {
		if t = strings.TrimSpace(t); t != "" {
			c.Task = append(c.Task, t)
		}
	}
	c.Count, _ = strconv.Atoi(count)

	// Re-check the cross-field rules the form cannot express.
	return c.Validate()
}

func validClock(s string) error {
	_, err := time.Parse(constants.TimeFormat, s)
	return err
}

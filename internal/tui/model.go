package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/evvtrack/evvtrack/internal/models"
	"github.com/evvtrack/evvtrack/internal/resolution"
	"github.com/evvtrack/evvtrack/internal/storage"
	"github.com/evvtrack/evvtrack/internal/tui/components/conflictlist"
	"github.com/evvtrack/evvtrack/internal/tui/components/roster"
	"github.com/evvtrack/evvtrack/internal/tui/components/schedule"
)

// AssignFormModel backs the caregiver picker. It is held by pointer so the
// huh form keeps writing to the same value across model copies.
type AssignFormModel struct {
	VisitID string
	Choice  string
}

type viewState int

const (
	stateSchedule viewState = iota
	stateConflicts
	stateRoster
	stateSettings
	stateAssign
	stateConfirmCancel
)

type Model struct {
	store   storage.Provider
	service *resolution.Service

	state         viewState
	previousState viewState
	keys          KeyMap
	help          help.Model

	scheduleModel  schedule.Model
	conflictsModel conflictlist.Model
	rosterModel    roster.Model
	settings       models.Settings

	form            *huh.Form
	assignForm      *AssignFormModel
	visitToCancelID string

	statusMsg string
	quitting  bool
	width     int
	height    int
}

func NewModel(store storage.Provider, service *resolution.Service) Model {
	visits, _ := store.GetAllVisits()
	names := displayNames(store)

	alerts, _ := service.Detect(time.Now())

	caregivers, _ := store.GetAllCaregivers()
	availability, _ := store.GetAllAvailability()

	settings, _ := store.GetSettings()

	return Model{
		store:          store,
		service:        service,
		state:          stateSchedule,
		keys:           DefaultKeyMap(),
		help:           help.New(),
		scheduleModel:  schedule.New(visits, names, 0, 0),
		conflictsModel: conflictlist.New(alerts, 0, 0),
		rosterModel:    roster.New(caregivers, availability, 0, 0),
		settings:       settings,
	}
}

func displayNames(store storage.Provider) map[string]string {
	names := make(map[string]string)
	if caregivers, err := store.GetAllCaregivers(); err == nil {
		for _, cg := range caregivers {
			names[cg.ID] = cg.Name
		}
	}
	if clients, err := store.GetAllClients(); err == nil {
		for _, cl := range clients {
			names[cl.ID] = cl.Name
		}
	}
	return names
}

// refresh reloads every component after a mutation.
func (m *Model) refresh() {
	visits, _ := m.store.GetAllVisits()
	m.scheduleModel.SetVisits(visits, displayNames(m.store))

	alerts, _ := m.service.Detect(time.Now())
	m.conflictsModel.SetAlerts(alerts)

	caregivers, _ := m.store.GetAllCaregivers()
	availability, _ := m.store.GetAllAvailability()
	m.rosterModel.SetCaregivers(caregivers, availability)

	if settings, err := m.store.GetSettings(); err == nil {
		m.settings = settings
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	if m.state == stateConflicts {
		keys = append(keys, m.keys.Refresh)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Tab, m.keys.ShiftTab, m.keys.Refresh},
		{m.keys.Help, m.keys.Quit},
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

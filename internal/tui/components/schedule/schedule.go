package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/models"
)

type AssignVisitMsg struct {
	ID string
}

type CancelVisitMsg struct {
	ID string
}

type Item struct {
	Visit      models.Visit
	ClientName string
	Caregiver  string
}

func (i Item) Title() string {
	window := fmt.Sprintf("%s %s-%s",
		i.Visit.ScheduledStart.Format(constants.DateFormat),
		i.Visit.ScheduledStart.Format(constants.TimeFormat),
		i.Visit.ScheduledEnd.Format(constants.TimeFormat))
	title := fmt.Sprintf("%s  %s", window, i.ClientName)
	if i.Visit.Priority == constants.PriorityHigh {
		title = "‼ " + title
	}
	return title
}

func (i Item) Description() string {
	who := i.Caregiver
	if who == "" {
		who = "UNASSIGNED"
	}
	parts := []string{who, string(i.Visit.Status)}
	if len(i.Visit.Tasks) > 0 {
		done := 0
		for _, t := range i.Visit.Tasks {
			if t.Completed {
				done++
			}
		}
		parts = append(parts, fmt.Sprintf("tasks %d/%d", done, len(i.Visit.Tasks)))
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string { return i.ClientName + " " + i.Caregiver }

type KeyMap struct {
	Assign key.Binding
	Cancel key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Assign: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "assign"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel visit"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(visits []models.Visit, names map[string]string, width, height int) Model {
	l := list.New(buildItems(visits, names), list.NewDefaultDelegate(), width, height)
	l.Title = "Schedule"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Assign, keys.Cancel}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Assign, keys.Cancel}
	}

	return Model{
		list: l,
		keys: keys,
	}
}

// SetVisits replaces the listing. names maps both caregiver and client ids
// to display names.
func (m *Model) SetVisits(visits []models.Visit, names map[string]string) {
	m.list.SetItems(buildItems(visits, names))
}

func buildItems(visits []models.Visit, names map[string]string) []list.Item {
	sorted := make([]models.Visit, len(visits))
	copy(sorted, visits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ScheduledStart.Before(sorted[j].ScheduledStart)
	})

	items := make([]list.Item, len(sorted))
	for i, v := range sorted {
		client := names[v.ClientID]
		if client == "" {
			client = v.ClientID
		}
		caregiver := ""
		if v.CaregiverID != "" {
			caregiver = names[v.CaregiverID]
			if caregiver == "" {
				caregiver = v.CaregiverID
			}
		}
		items[i] = Item{Visit: v, ClientName: client, Caregiver: caregiver}
	}
	return items
}

// Selected returns the visit under the cursor.
func (m Model) Selected() (models.Visit, bool) {
	if item, ok := m.list.SelectedItem().(Item); ok {
		return item.Visit, true
	}
	return models.Visit{}, false
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Assign):
			if item, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg {
					return AssignVisitMsg{ID: item.Visit.ID}
				}
			}
		case key.Matches(msg, m.keys.Cancel):
			if item, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg {
					return CancelVisitMsg{ID: item.Visit.ID}
				}
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

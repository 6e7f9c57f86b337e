package conflictlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evvtrack/evvtrack/internal/constants"
	"github.com/evvtrack/evvtrack/internal/models"
)

// ResolveConflictMsg asks the root model to open the assignment flow for
// the first visit implicated by an alert.
type ResolveConflictMsg struct {
	VisitID string
}

type Item struct {
	Alert models.ConflictAlert
}

func (i Item) Title() string {
	icon := "•"
	switch i.Alert.Severity {
	case constants.SeverityHigh:
		icon = "‼"
	case constants.SeverityMedium:
		icon = "⚠"
	}
	return fmt.Sprintf("%s [%s] %s", icon, i.Alert.Severity, i.Alert.Kind)
}

func (i Item) Description() string {
	desc := i.Alert.Message
	if len(i.Alert.Suggestions) > 0 {
		desc += " → " + i.Alert.Suggestions[0]
	}
	return desc
}

func (i Item) FilterValue() string {
	return string(i.Alert.Kind) + " " + i.Alert.Message + " " + strings.Join(i.Alert.VisitIDs, " ")
}

type KeyMap struct {
	Resolve key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Resolve: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "resolve"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(alerts []models.ConflictAlert, width, height int) Model {
	items := make([]list.Item, len(alerts))
	for i, a := range alerts {
		items[i] = Item{Alert: a}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Conflicts"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Resolve}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Resolve}
	}

	return Model{
		list: l,
		keys: keys,
	}
}

func (m *Model) SetAlerts(alerts []models.ConflictAlert) {
	items := make([]list.Item, len(alerts))
	for i, a := range alerts {
		items[i] = Item{Alert: a}
	}
	m.list.SetItems(items)
}

func (m Model) Count() int {
	return len(m.list.Items())
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

		if key.Matches(msg, m.keys.Resolve) {
			if item, ok := m.list.SelectedItem().(Item); ok && len(item.Alert.VisitIDs) > 0 {
				return m, func() tea.Msg {
					return ResolveConflictMsg{VisitID: item.Alert.VisitIDs[0]}
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

package roster

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/evvtrack/evvtrack/internal/models"
)

type Item struct {
	Caregiver models.Caregiver
	Slots     []models.AvailabilitySlot
}

func (i Item) Title() string {
	return fmt.Sprintf("%s  ★%.1f", i.Caregiver.Name, i.Caregiver.Rating)
}

func (i Item) Description() string {
	var committed float64
	for _, s := range i.Slots {
		committed += s.CommittedHours
	}
	parts := []string{
		fmt.Sprintf("%.1f/%.1fh this week", committed, models.WeeklyMaxHours(i.Slots)),
		fmt.Sprintf("radius %.0f mi", i.Caregiver.TravelRadiusMi),
	}
	if len(i.Caregiver.Skills) > 0 {
		parts = append(parts, strings.Join(i.Caregiver.Skills, ", "))
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string {
	return i.Caregiver.Name + " " + strings.Join(i.Caregiver.Skills, " ")
}

type Model struct {
	list list.Model
}

func New(caregivers []models.Caregiver, availability map[string][]models.AvailabilitySlot, width, height int) Model {
	l := list.New(buildItems(caregivers, availability), list.NewDefaultDelegate(), width, height)
	l.Title = "Roster"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	return Model{list: l}
}

func (m *Model) SetCaregivers(caregivers []models.Caregiver, availability map[string][]models.AvailabilitySlot) {
	m.list.SetItems(buildItems(caregivers, availability))
}

func buildItems(caregivers []models.Caregiver, availability map[string][]models.AvailabilitySlot) []list.Item {
	items := make([]list.Item, len(caregivers))
	for i, cg := range caregivers {
		items[i] = Item{Caregiver: cg, Slots: availability[cg.ID]}
	}
	return items
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/evvtrack/evvtrack/internal/tui/components/conflictlist"
	"github.com/evvtrack/evvtrack/internal/tui/components/schedule"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Assign form runs until submitted or escaped
	if m.state == stateAssign {
		if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
			m.state = m.previousState
			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		cmds = append(cmds, cmd)

		switch m.form.State {
		case huh.StateCompleted:
			if m.assignForm.Choice == "" {
				m.statusMsg = "Assignment cancelled"
			} else if _, err := m.service.Assign(m.assignForm.VisitID, m.assignForm.Choice, time.Now()); err != nil {
				m.statusMsg = fmt.Sprintf("Assign failed: %v", err)
			} else {
				m.statusMsg = "Caregiver assigned"
				m.refresh()
			}
			m.state = m.previousState
		case huh.StateAborted:
			m.state = m.previousState
		}
		return m, tea.Batch(cmds...)
	}

	// Cancel confirmation
	if m.state == stateConfirmCancel {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "y":
				if _, err := m.service.Cancel(m.visitToCancelID, time.Now()); err != nil {
					m.statusMsg = fmt.Sprintf("Cancel failed: %v", err)
				} else {
					m.statusMsg = "Visit cancelled"
					m.refresh()
				}
				m.visitToCancelID = ""
				m.state = stateSchedule
			case "n", "q", "esc":
				m.visitToCancelID = ""
				m.state = stateSchedule
			}
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - 6
		m.scheduleModel.SetSize(msg.Width-4, contentHeight)
		m.conflictsModel.SetSize(msg.Width-4, contentHeight)
		m.rosterModel.SetSize(msg.Width-4, contentHeight)

	case schedule.AssignVisitMsg:
		return m.openAssignForm(msg.ID)

	case schedule.CancelVisitMsg:
		m.visitToCancelID = msg.ID
		m.state = stateConfirmCancel
		return m, nil

	case conflictlist.ResolveConflictMsg:
		return m.openAssignForm(msg.VisitID)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.statusMsg = ""
			m.state = nextView(m.state)
			return m, nil
		case "shift+tab":
			m.statusMsg = ""
			m.state = prevView(m.state)
			return m, nil
		case "?":
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case "R":
			m.refresh()
			m.statusMsg = "Detection refreshed"
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSchedule:
		m.scheduleModel, cmd = m.scheduleModel.Update(msg)
	case stateConflicts:
		m.conflictsModel, cmd = m.conflictsModel.Update(msg)
	case stateRoster:
		m.rosterModel, cmd = m.rosterModel.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func nextView(s viewState) viewState {
	switch s {
	case stateSchedule:
		return stateConflicts
	case stateConflicts:
		return stateRoster
	case stateRoster:
		return stateSettings
	case stateSettings:
		return stateSchedule
	}
	return s
}

func prevView(s viewState) viewState {
	switch s {
	case stateSchedule:
		return stateSettings
	case stateConflicts:
		return stateSchedule
	case stateRoster:
		return stateConflicts
	case stateSettings:
		return stateRoster
	}
	return s
}

// openAssignForm builds a candidate picker for the visit from the ranked
// matching results.
func (m Model) openAssignForm(visitID string) (tea.Model, tea.Cmd) {
	visit, ranked, err := m.service.Candidates(visitID)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Cannot rank candidates: %v", err)
		return m, nil
	}
	if len(ranked) == 0 {
		m.statusMsg = "No eligible caregivers for this visit"
		return m, nil
	}

	options := make([]huh.Option[string], 0, len(ranked)+1)
	for _, r := range ranked {
		label := fmt.Sprintf("%s  score %.2f, %.1f mi", r.Caregiver.Name, r.Score, r.DistanceMi)
		options = append(options, huh.NewOption(label, r.Caregiver.ID))
	}
	options = append(options, huh.NewOption("(cancel)", ""))

	m.assignForm = &AssignFormModel{VisitID: visit.ID}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Assign caregiver for %s %s",
					visit.ScheduledStart.Format("Mon 15:04"), visit.ClientID)).
				Options(options...).
				Value(&m.assignForm.Choice),
		),
	).WithTheme(huh.ThemeDracula())
	m.previousState = m.state
	m.state = stateAssign
	return m, m.form.Init()
}

package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case stateSchedule:
		content = docStyle.Render(m.scheduleModel.View())
	case stateConflicts:
		content = docStyle.Render(m.conflictsModel.View())
	case stateRoster:
		content = docStyle.Render(m.rosterModel.View())
	case stateSettings:
		content = docStyle.Render(m.viewSettings())
	case stateAssign:
		content = m.form.View()
	case stateConfirmCancel:
		content = m.viewConfirmCancel()
	}

	var banner string
	if count := m.conflictsModel.Count(); count > 0 && m.state == stateSchedule {
		banner = bannerStyle.Render(fmt.Sprintf("⚠ %d CONFLICT(S) DETECTED", count))
	}

	var status string
	if m.statusMsg != "" {
		status = statusStyle.Render(m.statusMsg)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		banner,
		content,
		status,
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	tabTitles := []string{"Schedule", "Conflicts", "Roster", "Settings"}
	for i, title := range tabTitles {
		if m.state == viewState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewSettings() string {
	row := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-24s", label)) + value
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		row("Geofence radius", fmt.Sprintf("%.2f mi", m.settings.GeofenceRadiusMi)),
		row("No-show grace", fmt.Sprintf("%d min", m.settings.NoShowGraceMin)),
		row("Overtime risk ratio", fmt.Sprintf("%.2f", m.settings.OvertimeRiskRatio)),
		row("Overtime hard ratio", fmt.Sprintf("%.2f", m.settings.OvertimeHardRatio)),
		row("Overtime allowance", fmt.Sprintf("%.2f", m.settings.OvertimeAllowance)),
		row("Unassigned lead time", fmt.Sprintf("%.1f hrs", m.settings.UnassignedLeadHrs)),
		row("Travel speed", fmt.Sprintf("%.1f mph", m.settings.TravelSpeedMph)),
		row("Sample interval", fmt.Sprintf("%d sec", m.settings.SampleIntervalSec)),
		row("Notify on resolution", fmt.Sprintf("%v", m.settings.NotifyOnResolution)),
		row("Notify on refusal", fmt.Sprintf("%v", m.settings.NotifyOnRefusal)),
		row("Timezone", m.settings.Timezone),
		"",
		labelStyle.Render("Edit with 'evvtrack settings'."),
	)
}

func (m Model) viewConfirmCancel() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Cancel visit %s?", m.visitToCancelID)),
			"The slot is freed and detection re-runs.",
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

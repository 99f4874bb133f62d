package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/dwizi/autobot/internal/heartbeat"
)

func (m model) renderOverview(t theme, width, rows int) string {
	colWidth := maxInt(10, (width-4)/3)
	colStyle := lipgloss.NewStyle().Width(colWidth)

	degraded := 0
	for _, component := range m.snapshot.Components {
		if heartbeat.IsDegradedState(component.State) {
			degraded++
		}
	}
	total, failures := 0, 0
	for _, count := range m.counts {
		total += count.Total
		failures += count.Failures
	}

	overall := fallbackText(m.snapshot.Overall, "unknown")
	healthCard := colStyle.Render(strings.Join([]string{
		t.cardLabel.Render("Health"),
		t.stateStyle(overall).Bold(true).Render(overall),
		t.panelSubtle.Render(fmt.Sprintf("%d components", len(m.snapshot.Components))),
	}, "\n"))
	degradedCard := colStyle.Render(strings.Join([]string{
		t.cardLabel.Render("Degraded"),
		t.cardValue.Render(fmt.Sprintf("%d", degraded)),
		t.panelSubtle.Render("stale or failing"),
	}, "\n"))
	ledgerCard := colStyle.Render(strings.Join([]string{
		t.cardLabel.Render("Invocations"),
		t.cardValue.Render(fmt.Sprintf("%d", total)),
		t.panelSubtle.Render(fmt.Sprintf("failures %d", failures)),
	}, "\n"))

	cards := lipgloss.JoinHorizontal(lipgloss.Top, healthCard, " ", degradedCard, " ", ledgerCard)
	if len(m.snapshot.Components) == 0 {
		return cards + "\n\n" + t.panelSubtle.Render("no heartbeat data yet")
	}

	messageWidth := maxInt(10, width-44)
	tableRows := make([][]string, 0, len(m.snapshot.Components))
	for _, component := range m.snapshot.Components {
		note := component.Message
		if component.Error != "" {
			note = component.Error
		}
		tableRows = append(tableRows, []string{
			component.Name,
			component.State,
			beatAge(m.snapshot.GeneratedAtUnix, component.LastBeatAtUnix),
			trimToWidth(note, messageWidth),
		})
	}
	components := renderRows(t, []string{"COMPONENT", "STATE", "LAST BEAT", "NOTE"}, tableRows, -1, maxInt(1, rows-4), func(row []string, col int) lipgloss.Style {
		if col == 1 {
			return t.stateStyle(row[1]).Padding(0, 1)
		}
		return t.tableCell
	})
	return cards + "\n\n" + components
}

func (m model) renderOverviewInspector(t theme, width int) string {
	lines := []string{}
	for _, component := range m.snapshot.Components {
		if !heartbeat.IsDegradedState(component.State) {
			continue
		}
		lines = append(lines, t.panelError.Render(component.Name+" "+component.State))
		if detail := fallbackText(component.Error, component.Message); detail != "" {
			lines = append(lines, trimToWidth(detail, width), "")
		}
	}
	if len(lines) == 0 {
		if len(m.snapshot.Components) == 0 {
			return t.panelSubtle.Render("waiting for the first heartbeat snapshot")
		}
		return t.panelSuccess.Render("all components healthy")
	}
	return strings.Join(lines, "\n")
}

// beatAge reports how long before the snapshot a component last beat.
func beatAge(generatedAtUnix, lastBeatAtUnix int64) string {
	if lastBeatAtUnix <= 0 {
		return "-"
	}
	age := generatedAtUnix - lastBeatAtUnix
	if age < 0 {
		age = 0
	}
	return fmt.Sprintf("%ds ago", age)
}

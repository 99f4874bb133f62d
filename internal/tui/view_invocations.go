package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
)

func (m model) renderInvocationsTable(t theme, width, rows int) string {
	if len(m.invocations) == 0 {
		return t.panelSubtle.Render("no invocations recorded")
	}
	channelWidth := maxInt(8, width-56)
	tableRows := make([][]string, 0, len(m.invocations))
	for _, item := range m.invocations {
		tableRows = append(tableRows, []string{
			time.Unix(item.CreatedAtUnix, 0).UTC().Format("01-02 15:04:05"),
			item.Command,
			item.Outcome,
			formatDuration(item.DurationMS),
			trimToWidth(item.Connector+"/"+item.ChannelID, channelWidth),
		})
	}
	return renderRows(t, []string{"TIME", "COMMAND", "OUTCOME", "TOOK", "CHANNEL"}, tableRows, m.cursor, rows, func(row []string, col int) lipgloss.Style {
		if col == 2 {
			return t.outcomeStyle(row[2]).Padding(0, 1)
		}
		return t.tableCell
	})
}

func (m model) renderInvocationInspector(t theme, width int) string {
	item, ok := m.selectedInvocation()
	if !ok {
		return t.panelSubtle.Render("select an invocation")
	}
	lines := []string{
		field(t, "id", item.ID),
		field(t, "when", time.Unix(item.CreatedAtUnix, 0).UTC().Format(time.RFC3339)),
		field(t, "connector", item.Connector),
		field(t, "channel", item.ChannelID),
		field(t, "user", fallbackText(item.UserID, "-")),
		field(t, "command", item.Command),
		t.panelSubtle.Render(padLabel("outcome")) + t.outcomeStyle(item.Outcome).Render(item.Outcome),
		field(t, "took", formatDuration(item.DurationMS)),
	}
	if detail := strings.TrimSpace(item.Detail); detail != "" {
		lines = append(lines, "", t.panelSubtle.Render("detail"), lipgloss.NewStyle().Width(width).Render(detail))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderCommandsTable(t theme, width, rows int) string {
	if len(m.counts) == 0 {
		return t.panelSubtle.Render("no invocations recorded")
	}
	tableRows := make([][]string, 0, len(m.counts))
	for _, count := range m.counts {
		tableRows = append(tableRows, []string{
			count.Command,
			strconv.Itoa(count.Total),
			strconv.Itoa(count.Failures),
			failureRate(count),
		})
	}
	return renderRows(t, []string{"COMMAND", "TOTAL", "FAILURES", "RATE"}, tableRows, m.cursor, rows, func(row []string, col int) lipgloss.Style {
		if col == 2 && row[2] != "0" {
			return t.panelWarn.Padding(0, 1)
		}
		return t.tableCell
	})
}

func (m model) renderCommandInspector(t theme) string {
	count, ok := m.selectedCount()
	if !ok {
		return t.panelSubtle.Render("select a command")
	}
	recent := 0
	for _, item := range m.invocations {
		if item.Command == count.Command {
			recent++
		}
	}
	return strings.Join([]string{
		field(t, "command", count.Command),
		field(t, "total", strconv.Itoa(count.Total)),
		field(t, "failures", strconv.Itoa(count.Failures)),
		field(t, "rate", failureRate(count)),
		field(t, "recent", fmt.Sprintf("%d of last %d", recent, len(m.invocations))),
	}, "\n")
}

func field(t theme, label, value string) string {
	return t.panelSubtle.Render(padLabel(label)) + t.panelAccent.Render(value)
}

func padLabel(label string) string {
	return fmt.Sprintf("%-10s", label)
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

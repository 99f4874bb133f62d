package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

func (m model) renderView() string {
	if m.quitting {
		return "autobot dashboard closed\n"
	}

	t := newTheme()
	layout := computeLayout(m.width, m.height)

	header := m.renderHeader(t, layout)
	nav := m.renderNav(t, layout)
	main := m.renderMain(t, layout)
	inspector := m.renderInspector(t, layout)
	footer := m.renderFooter(t, layout)

	var body string
	if layout.Compact {
		body = lipgloss.JoinVertical(lipgloss.Left, main, inspector)
	} else {
		sep := t.panelSubtle.Render(strings.TrimRight(strings.Repeat("│\n", layout.BodyHeight), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, main, sep, inspector)
	}
	ui := lipgloss.JoinVertical(lipgloss.Left, header, nav, body, footer)
	return t.appBG.Width(layout.Width).Height(layout.Height).Render(ui)
}

func (m model) renderHeader(t theme, layout uiLayout) string {
	style := sizedStyle(t.headerBox, layout.Width, layout.HeaderHeight)
	contentWidth := innerWidth(t.headerBox, layout.Width)

	refreshed := "never"
	if !m.lastRefresh.IsZero() {
		refreshed = m.lastRefresh.UTC().Format("15:04:05") + " utc"
	}
	line1 := fillLine(t.brand.Render("autobot dashboard"), m.statusChip(t), contentWidth)
	line2 := fillLine(
		t.headerSub.Render(trimToWidth("api: "+fallbackText(m.cfg.AdminAPIURL, "unset")+" | env: "+fallbackText(m.cfg.Environment, "unset"), maxInt(20, contentWidth/2))),
		t.headerSub.Render(trimToWidth("refreshed: "+refreshed+" | every "+m.refreshEvery.String(), maxInt(20, contentWidth/2))),
		contentWidth,
	)
	return style.Render(line1 + "\n" + line2)
}

func (m model) statusChip(t theme) string {
	switch {
	case m.errorText != "" && m.snapshot.Overall == "":
		return t.chipError.Render("UNREACHABLE")
	case m.snapshot.Overall == "":
		return t.chipWarn.Render("CONNECTING")
	case m.snapshot.Overall == "healthy":
		return t.chipSuccess.Render("HEALTHY")
	case m.snapshot.Overall == "degraded":
		return t.chipError.Render("DEGRADED")
	case m.snapshot.Overall == "starting":
		return t.chipWarn.Render("STARTING")
	default:
		return t.chipInfo.Render(strings.ToUpper(m.snapshot.Overall))
	}
}

func (m model) renderNav(t theme, layout uiLayout) string {
	items := make([]string, 0, len(allViews()))
	for index, view := range allViews() {
		label := fmt.Sprintf("%d:%s", index+1, viewLabel(view))
		if view == m.activeView {
			items = append(items, t.navActive.Render(label))
			continue
		}
		items = append(items, t.navItem.Render(label))
	}
	return lipgloss.NewStyle().Width(layout.Width).Height(layout.NavHeight).Render(strings.Join(items, " "))
}

func (m model) renderMain(t theme, layout uiLayout) string {
	width, height := layout.mainSize()
	contentWidth := innerWidth(t.panelBox, width)
	// Title row plus table header and rule.
	rows := maxInt(1, height-3)

	var title, content string
	switch m.activeView {
	case viewInvocations:
		title = "Invocations"
		content = m.renderInvocationsTable(t, contentWidth, rows)
	case viewCommands:
		title = "Commands"
		content = m.renderCommandsTable(t, contentWidth, rows)
	default:
		title = "Overview"
		content = m.renderOverview(t, contentWidth, rows)
	}

	head := fillLine(t.panelTitle.Render(title), t.panelSubtle.Render(viewSubtitle(m.activeView)), contentWidth)
	clipped := lipgloss.NewStyle().MaxWidth(contentWidth).MaxHeight(height - 1).Render(content)
	return sizedStyle(t.panelBox, width, height).Render(head + "\n" + clipped)
}

func (m model) renderInspector(t theme, layout uiLayout) string {
	width, height := layout.inspectorSize()
	contentWidth := innerWidth(t.panelBox, width)

	var content string
	switch m.activeView {
	case viewInvocations:
		content = m.renderInvocationInspector(t, contentWidth)
	case viewCommands:
		content = m.renderCommandInspector(t)
	default:
		content = m.renderOverviewInspector(t, contentWidth)
	}

	head := t.panelTitle.Render("Inspector")
	clipped := lipgloss.NewStyle().MaxWidth(contentWidth).MaxHeight(height - 1).Render(content)
	return sizedStyle(t.panelBox, width, height).Render(head + "\n" + clipped)
}

func (m model) renderFooter(t theme, layout uiLayout) string {
	style := t.footerBox
	contentWidth := innerWidth(style, layout.Width)

	status := "status: " + fallbackText(m.statusText, "idle")
	statusStyled := t.footerOK.Render(trimToWidth(status, contentWidth))
	if m.loading {
		statusStyled = t.footerWarn.Render(trimToWidth(status, contentWidth))
	}
	if strings.TrimSpace(m.errorText) != "" {
		statusStyled = t.footerErr.Render(trimToWidth("status: "+m.errorText, contentWidth))
	}

	helpLine := t.footerInfo.Render(m.help.View(m.keys))
	return sizedStyle(style, layout.Width, layout.FooterHeight).Render(helpLine + "\n" + statusStyled)
}

// renderRows draws a borderless table with the selected row highlighted.
// Only the rows that fit are drawn, scrolled so selected stays visible.
func renderRows(t theme, headers []string, rows [][]string, selected, visible int, cellStyle func(row []string, col int) lipgloss.Style) string {
	start := 0
	if selected >= visible {
		start = selected - visible + 1
	}
	end := minInt(len(rows), start+visible)
	window := rows[start:end]

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.tableBorder).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return t.tableHeader
			case row+start == selected:
				return t.tableSelected
			case cellStyle != nil && row < len(window):
				return cellStyle(window[row], col)
			default:
				return t.tableCell
			}
		}).
		Headers(headers...).
		Rows(window...).
		String()
}

func fillLine(left, right string, width int) string {
	if width <= 0 {
		return strings.TrimSpace(left + " " + right)
	}
	lw := lipgloss.Width(left)
	rw := lipgloss.Width(right)
	if lw+rw+1 > width {
		return lipgloss.NewStyle().MaxWidth(width).Render(left + " " + right)
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

func trimToWidth(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func sizedStyle(style lipgloss.Style, width, height int) lipgloss.Style {
	contentWidth := maxInt(1, width-style.GetHorizontalFrameSize())
	contentHeight := maxInt(1, height-style.GetVerticalFrameSize())
	return style.Width(contentWidth).Height(contentHeight)
}

func innerWidth(style lipgloss.Style, width int) int {
	return maxInt(1, width-style.GetHorizontalFrameSize())
}

func viewSubtitle(view viewID) string {
	switch view {
	case viewInvocations:
		return "recent command ledger"
	case viewCommands:
		return "per-command totals"
	default:
		return "component health"
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	switch m.viewMode {
	case ViewHelp:
		return m.renderHelpView()
	default:
		return m.renderMainView()
	}
}

func (m Model) renderMainView() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var content strings.Builder
	content.WriteString(m.renderHeader())
	content.WriteString("\n")
	content.WriteString(m.renderPanels())
	content.WriteString("\n")
	content.WriteString(m.renderFooter())
	return content.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("glint dashboard")

	summary := fmt.Sprintf(
		"declarations %d  modules %d  plugins %d  errors %d",
		len(m.snapshot.Declarations), len(m.snapshot.Modules),
		len(m.snapshot.Plugins), len(m.snapshot.RecentErrors),
	)

	if m.refreshing {
		summary = lipgloss.JoinHorizontal(lipgloss.Left, progressStyle.Render(m.spinner.View()+" refreshing"), "  "+summary)
	} else if !m.lastRefresh.IsZero() {
		summary = fmt.Sprintf("%s  (updated %s)", summary, m.lastRefresh.Format("15:04:05"))
	}

	return headerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, summary))
}

func (m Model) renderPanels() string {
	var tabs []string
	for p := Panel(0); p < panelCount; p++ {
		label := p.String()
		if p == m.panel {
			tabs = append(tabs, selectedTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	tabLine := lipgloss.JoinHorizontal(lipgloss.Left, tabs...)

	var body string
	switch m.panel {
	case PanelDeclarations:
		body = m.renderDeclarations()
	case PanelModules:
		body = m.renderModules()
	case PanelPlugins:
		body = m.renderPlugins()
	case PanelErrors:
		body = m.renderErrors()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabLine, panelBodyStyle.Render(body))
}

func (m Model) renderDeclarations() string {
	decls := m.snapshot.Declarations
	if len(decls) == 0 {
		return emptyStateStyle.Render("No declarations registered yet.")
	}
	var lines []string
	for i, d := range decls {
		desc := d.Description
		if desc == "" {
			desc = lipgloss.NewStyle().Foreground(mutedColor).Render("(no description)")
		}
		line := fmt.Sprintf("%s  %s", lipgloss.NewStyle().Bold(true).Render(d.Name), desc)
		lines = append(lines, renderListItem(line, i == m.cursor[PanelDeclarations]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderModules() string {
	mods := m.snapshot.Modules
	if len(mods) == 0 {
		return emptyStateStyle.Render("No modules loaded yet.")
	}
	var lines []string
	for i, mod := range mods {
		line := fmt.Sprintf("%s  %d declarations", lipgloss.NewStyle().Bold(true).Render(mod.Name), mod.DeclCount)
		lines = append(lines, renderListItem(line, i == m.cursor[PanelModules]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderPlugins() string {
	plugins := m.snapshot.Plugins
	if len(plugins) == 0 {
		return emptyStateStyle.Render("No plugins registered yet.")
	}
	var lines []string
	for i, p := range plugins {
		status := statusUnknownStyle.Render("○ disconnected")
		if p.Connected {
			status = statusSatisfiedStyle.Render("● connected")
		}
		line := fmt.Sprintf("%s  %s  %s", lipgloss.NewStyle().Bold(true).Render(p.Identity), status, lipgloss.NewStyle().Foreground(mutedColor).Render(p.Path))
		lines = append(lines, renderListItem(line, i == m.cursor[PanelPlugins]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) renderErrors() string {
	errs := m.snapshot.RecentErrors
	if len(errs) == 0 {
		return emptyStateStyle.Render("No errors recorded.")
	}
	var lines []string
	for i := len(errs) - 1; i >= 0; i-- {
		line := statusFailedStyle.Render(errs[i])
		lines = append(lines, renderListItem(line, i == m.cursor[PanelErrors]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderListItem(content string, selected bool) string {
	if selected {
		return selectedItemStyle.Render(content)
	}
	return itemStyle.Render(content)
}

func (m Model) renderFooter() string {
	hints := []string{
		"tab: switch panel",
		"↑/↓: navigate",
		"r: refresh",
		"?: help",
		"q: quit",
	}
	return footerStyle.Render(strings.Join(hints, "  •  "))
}

func (m Model) renderHelpView() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	title := helpTitleStyle.Render("glint dashboard help")

	type helpEntry struct{ key, desc string }
	entries := []helpEntry{
		{"tab / shift+tab", "Switch between panels"},
		{"↑/↓, j/k", "Navigate within a panel"},
		{"r", "Refresh the snapshot now"},
		{"?", "Toggle this help"},
		{"q, Ctrl+C", "Quit"},
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, helpKeyStyle.Render(e.key), helpDescStyle.Render(e.desc)))
	}

	body := helpBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	footer := footerStyle.Render("Press ? or Esc to close")

	return lipgloss.JoinVertical(lipgloss.Left, title, body, footer)
}

package dashboard

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		ApplyMaxWidth(m.width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tea.Batch(refreshCmd(m.source), tickCmd(m.refreshInterval))

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.lastRefresh = msg.At
		m.refreshing = false
		for p := Panel(0); p < panelCount; p++ {
			if count := panelItemCount(m.snapshot, p); m.cursor[p] >= count {
				m.cursor[p] = 0
			}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.viewMode {
	case ViewHelp:
		return m.handleHelpKeys(msg)
	default:
		return m.handleMainKeys(msg)
	}
}

func (m Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)
		return m, nil

	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "tab", "right", "l":
		m.nextPanel()
		return m, nil

	case "shift+tab", "left", "h":
		m.prevPanel()
		return m, nil

	case "r":
		m.refreshing = true
		return m, tea.Batch(m.spinner.Tick, refreshCmd(m.source))

	case "?":
		m.viewMode = ViewHelp
		return m, nil
	}
	return m, nil
}

func (m Model) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q":
		m.viewMode = ViewMain
		return m, nil
	}
	return m, nil
}

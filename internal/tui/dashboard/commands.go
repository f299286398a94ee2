package dashboard

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshCmd polls source for a fresh Snapshot.
func refreshCmd(source Source) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: source.Snapshot(), At: time.Now()}
	}
}

// tickCmd schedules the next automatic refresh after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

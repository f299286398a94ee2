package dashboard

import "time"

// ViewMode determines which screen to render.
type ViewMode int

const (
	ViewMain ViewMode = iota
	ViewHelp
)

// Panel identifies one of the dashboard's four read-only list panels.
type Panel int

const (
	PanelDeclarations Panel = iota
	PanelModules
	PanelPlugins
	PanelErrors
	panelCount
)

func (p Panel) String() string {
	switch p {
	case PanelDeclarations:
		return "Declarations"
	case PanelModules:
		return "Modules"
	case PanelPlugins:
		return "Plugins"
	case PanelErrors:
		return "Recent Errors"
	default:
		return "Unknown"
	}
}

// SnapshotMsg delivers a freshly polled Snapshot.
type SnapshotMsg struct {
	Snapshot Snapshot
	At       time.Time
}

// tickMsg requests the next scheduled refresh.
type tickMsg time.Time

// ToggleHelpMsg requests the help overlay toggle.
type ToggleHelpMsg struct{}

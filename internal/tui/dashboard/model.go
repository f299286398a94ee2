package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// defaultRefreshInterval governs the automatic poll of Source.Snapshot
// when the user isn't manually refreshing with "r".
const defaultRefreshInterval = 3 * time.Second

// Model is the dashboard's bubbletea model: a live, read-only view of
// Engine State (spec §6 "TUI dashboard" domain-stack expansion). It
// never accepts script input — refreshing only re-polls Source.
type Model struct {
	source Source

	snapshot    Snapshot
	lastRefresh time.Time
	refreshing  bool
	spinner     spinner.Model

	viewMode ViewMode
	panel    Panel
	cursor   [panelCount]int

	refreshInterval time.Duration

	width  int
	height int
}

// NewModel creates a dashboard model reading from source.
func NewModel(source Source) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		source:          source,
		spinner:         s,
		viewMode:        ViewMain,
		panel:           PanelDeclarations,
		refreshInterval: defaultRefreshInterval,
		width:           80,
		height:          24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, refreshCmd(m.source), tickCmd(m.refreshInterval))
}

func panelItemCount(s Snapshot, p Panel) int {
	switch p {
	case PanelDeclarations:
		return len(s.Declarations)
	case PanelModules:
		return len(s.Modules)
	case PanelPlugins:
		return len(s.Plugins)
	case PanelErrors:
		return len(s.RecentErrors)
	default:
		return 0
	}
}

func (m *Model) moveCursor(delta int) {
	count := panelItemCount(m.snapshot, m.panel)
	if count == 0 {
		return
	}
	c := m.cursor[m.panel] + delta
	if c < 0 {
		c = count - 1
	}
	if c >= count {
		c = 0
	}
	m.cursor[m.panel] = c
}

func (m *Model) nextPanel() {
	m.panel = Panel((int(m.panel) + 1) % int(panelCount))
}

func (m *Model) prevPanel() {
	m.panel = Panel((int(m.panel) - 1 + int(panelCount)) % int(panelCount))
}

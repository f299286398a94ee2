package dashboard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snapshot Snapshot
}

func (f fakeSource) Snapshot() Snapshot { return f.snapshot }

func testSnapshot() Snapshot {
	return Snapshot{
		Declarations: []DeclarationInfo{{Name: "where", Category: "filters"}, {Name: "get", Category: "filters"}},
		Modules:      []ModuleInfo{{Name: "std", DeclCount: 3}},
		Plugins:      []PluginInfo{{Identity: "inc", Path: "/usr/local/bin/nu_plugin_inc", Connected: true}},
		RecentErrors: []string{"pipeline failed: boom"},
	}
}

func TestNewModelInitialState(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	assert.Equal(t, ViewMain, m.viewMode)
	assert.Equal(t, PanelDeclarations, m.panel)
}

func TestUpdateSnapshotMsgStoresData(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	updated, _ := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	next, ok := updated.(Model)
	require.True(t, ok)
	assert.Len(t, next.snapshot.Declarations, 2)
	assert.Len(t, next.snapshot.Plugins, 1)
}

func TestPanelNavigationWraps(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	updated, _ := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	m = updated.(Model)

	for i := 0; i < int(panelCount); i++ {
		updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = updated.(Model)
	}
	assert.Equal(t, PanelDeclarations, m.panel)
}

func TestCursorNavigationWithinPanel(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	updated, _ := m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	m = updated.(Model)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor[PanelDeclarations])

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 0, m.cursor[PanelDeclarations]) // wraps at len(Declarations)==2
}

func TestHelpToggle(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	m = updated.(Model)
	assert.Equal(t, ViewHelp, m.viewMode)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Equal(t, ViewMain, m.viewMode)
}

func TestQuitKeySendsQuitCmd(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	assert.True(t, ok)
}

func TestViewRendersWithoutPanicBeforeSize(t *testing.T) {
	m := Model{}
	assert.Equal(t, "Initializing...", m.View())
}

func TestViewRendersPanelsAfterSizeAndSnapshot(t *testing.T) {
	m := NewModel(fakeSource{snapshot: testSnapshot()})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	updated, _ = m.Update(SnapshotMsg{Snapshot: testSnapshot()})
	m = updated.(Model)

	out := m.View()
	assert.Contains(t, out, "where")
	assert.Contains(t, out, "Declarations")
}

func TestFakeSourceSatisfiesSourceInterface(t *testing.T) {
	var _ Source = fakeSource{}
}

package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/engine"
)

type fakeHealth struct {
	connected map[engine.PluginID]bool
}

func (f fakeHealth) Connected(id engine.PluginID) bool { return f.connected[id] }

func TestEngineSourceSnapshot(t *testing.T) {
	state := engine.NewState()
	state.MergeDelta(engine.Delta{
		Decls:   []*engine.Declaration{{Name: "where", Category: "filters", Description: "Filter rows"}},
		Modules: []*engine.Module{{Name: "std", DeclIDs: []engine.DeclID{0}}},
		Plugins: []engine.PluginRegistration{{Identity: "inc", Path: "/bin/nu_plugin_inc"}},
	})

	pluginID := state.AllPlugins()[0].ID
	health := fakeHealth{connected: map[engine.PluginID]bool{pluginID: true}}
	recentErrors := func() []string { return []string{"boom"} }

	src := NewEngineSource(state, health, recentErrors)
	snap := src.Snapshot()

	require.Len(t, snap.Declarations, 1)
	assert.Equal(t, "where", snap.Declarations[0].Name)
	require.Len(t, snap.Modules, 1)
	assert.Equal(t, 1, snap.Modules[0].DeclCount)
	require.Len(t, snap.Plugins, 1)
	assert.True(t, snap.Plugins[0].Connected)
	assert.Equal(t, []string{"boom"}, snap.RecentErrors)
}

func TestEngineSourceSnapshotNoHealthNoErrors(t *testing.T) {
	state := engine.NewState()
	state.MergeDelta(engine.Delta{
		Plugins: []engine.PluginRegistration{{Identity: "inc", Path: "/bin/nu_plugin_inc"}},
	})

	src := NewEngineSource(state, nil, nil)
	snap := src.Snapshot()

	require.Len(t, snap.Plugins, 1)
	assert.False(t, snap.Plugins[0].Connected)
	assert.Empty(t, snap.RecentErrors)
}

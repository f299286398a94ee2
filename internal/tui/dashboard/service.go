package dashboard

import (
	"github.com/glint-shell/glint/internal/domain/engine"
)

// PluginHealth reports whether a registered plugin currently has a live
// connection — checked by a Source when building a Snapshot.
type PluginHealth interface {
	Connected(id engine.PluginID) bool
}

// Source supplies the read-only state the dashboard renders: registered
// declarations, loaded modules, active plugins and their health, and the
// most recent pipeline errors. It never accepts script input — this is
// an introspection tool, not the REPL the spec excludes.
type Source interface {
	Snapshot() Snapshot
}

// DeclarationInfo is the dashboard's view of one engine.Declaration.
type DeclarationInfo struct {
	Name        string
	Category    string
	Description string
}

// ModuleInfo is the dashboard's view of one engine.Module.
type ModuleInfo struct {
	Name      string
	DeclCount int
}

// PluginInfo is the dashboard's view of one registered plugin.
type PluginInfo struct {
	Identity  string
	Path      string
	Connected bool
}

// Snapshot is a point-in-time read of Engine State plus the buffered
// logging sink, rendered by the dashboard.
type Snapshot struct {
	Declarations []DeclarationInfo
	Modules      []ModuleInfo
	Plugins      []PluginInfo
	RecentErrors []string
}

// EngineSource builds Snapshots from a live engine.State, a plugin health
// checker, and the buffered error feed of internal/logger.
type EngineSource struct {
	state  *engine.State
	health PluginHealth
	errors func() []string
}

// NewEngineSource creates a Source reading state through health, with
// recentErrors supplying the dashboard's error panel (typically
// (*logger.EventBuffer).RecentErrors).
func NewEngineSource(state *engine.State, health PluginHealth, recentErrors func() []string) *EngineSource {
	return &EngineSource{state: state, health: health, errors: recentErrors}
}

// Snapshot implements Source.
func (s *EngineSource) Snapshot() Snapshot {
	decls := s.state.AllDecls()
	declInfos := make([]DeclarationInfo, len(decls))
	for i, d := range decls {
		declInfos[i] = DeclarationInfo{Name: d.Name, Category: d.Category, Description: d.Description}
	}

	modules := s.state.AllModules()
	modInfos := make([]ModuleInfo, len(modules))
	for i, m := range modules {
		modInfos[i] = ModuleInfo{Name: m.Name, DeclCount: len(m.DeclIDs)}
	}

	plugins := s.state.AllPlugins()
	pluginInfos := make([]PluginInfo, len(plugins))
	for i, p := range plugins {
		connected := false
		if s.health != nil {
			connected = s.health.Connected(p.ID)
		}
		pluginInfos[i] = PluginInfo{Identity: p.Identity, Path: p.Path, Connected: connected}
	}

	var recent []string
	if s.errors != nil {
		recent = s.errors()
	}

	return Snapshot{Declarations: declInfos, Modules: modInfos, Plugins: pluginInfos, RecentErrors: recent}
}

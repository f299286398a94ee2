package engine

import (
	"fmt"
	"sync"
)

// State is the append-only arena of spec §3.6: declarations, blocks,
// modules, variables, and registered plugins, keyed by monotonic id.
// Grounded in the teacher's Graph (internal/engine/dag.go), which holds
// Nodes in a map and never removes entries once added; State generalizes
// that "append, never mutate" arena from DAG steps to parser artifacts.
type State struct {
	mu sync.RWMutex

	decls     []*Declaration
	blocks    []*Block
	modules   []*Module
	variables []*Variable
	plugins   []PluginRegistration

	// byName indexes declaration name -> most recently merged DeclID, for
	// find_decl lookups outside of an active parse (e.g. REPL/script
	// entry). During parsing, name resolution instead goes through the
	// WorkingSet's scope stack, which also sees not-yet-merged decls.
	byName map[string]DeclID

	envVarNames []string // names available as $env.<name> at top scope
}

// PluginRegistration records the identity handed back by register_plugin
// (spec §4.3).
type PluginRegistration struct {
	ID       PluginID
	Identity string
	Path     string
}

// NewState creates an empty Engine State.
func NewState() *State {
	return &State{byName: make(map[string]DeclID)}
}

// Delta is the set of additions a WorkingSet accumulated over this State
// (spec §3.6 GLOSSARY "Delta").
type Delta struct {
	Decls     []*Declaration
	Blocks    []*Block
	Modules   []*Module
	Variables []*Variable
	Plugins   []PluginRegistration
}

// MergeDelta applies a WorkingSet's additions into State, assigning final
// ids and returning the merged Delta with ids resolved (spec §4.3
// "merge_delta(delta) — apply a working set").
func (s *State) MergeDelta(d Delta) Delta {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, decl := range d.Decls {
		decl.ID = DeclID(len(s.decls))
		s.decls = append(s.decls, decl)
		s.byName[decl.Name] = decl.ID
	}
	for _, blk := range d.Blocks {
		blk.ID = BlockID(len(s.blocks))
		s.blocks = append(s.blocks, blk)
	}
	for _, mod := range d.Modules {
		mod.ID = ModuleID(len(s.modules))
		s.modules = append(s.modules, mod)
	}
	for _, v := range d.Variables {
		v.ID = VarID(len(s.variables))
		s.variables = append(s.variables, v)
	}
	for _, p := range d.Plugins {
		p.ID = PluginID(len(s.plugins))
		s.plugins = append(s.plugins, p)
	}
	return d
}

func (s *State) GetDecl(id DeclID) (*Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.decls) {
		return nil, fmt.Errorf("unknown declaration id %d", id)
	}
	return s.decls[id], nil
}

func (s *State) GetBlock(id BlockID) (*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.blocks) {
		return nil, fmt.Errorf("unknown block id %d", id)
	}
	return s.blocks[id], nil
}

func (s *State) GetModule(id ModuleID) (*Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.modules) {
		return nil, fmt.Errorf("unknown module id %d", id)
	}
	return s.modules[id], nil
}

func (s *State) GetVar(id VarID) (*Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.variables) {
		return nil, fmt.Errorf("unknown variable id %d", id)
	}
	return s.variables[id], nil
}

func (s *State) GetPlugin(id PluginID) (*PluginRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.plugins) {
		return nil, fmt.Errorf("unknown plugin id %d", id)
	}
	p := s.plugins[id]
	return &p, nil
}

// RegisterPlugin returns a handle for a newly spawned plugin (spec §4.3
// "register_plugin(identity) — returns handle"). Unlike decl/block/module
// registration this is not routed through a WorkingSet delta because
// plugin registration happens outside of parsing (CLI `plugin add`, or at
// startup from the on-disk registry).
func (s *State) RegisterPlugin(identity, path string) PluginID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := PluginID(len(s.plugins))
	s.plugins = append(s.plugins, PluginRegistration{ID: id, Identity: identity, Path: path})
	return id
}

// FindDecl resolves a name against the committed (merged) declarations,
// honoring overlay precedence is the WorkingSet's job during parsing; this
// is the post-parse lookup used by tooling that only has an Engine State
// (spec §4.3 "find_decl(name, scope)").
func (s *State) FindDecl(name string) (DeclID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	return id, ok
}

// AllDecls returns a snapshot of every committed declaration, used by the
// `scope commands` builtin and the dashboard (SPEC_FULL §"Supplemented
// features").
func (s *State) AllDecls() []*Declaration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Declaration(nil), s.decls...)
}

// AllModules mirrors AllDecls for `scope modules`.
func (s *State) AllModules() []*Module {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Module(nil), s.modules...)
}

// AllPlugins mirrors AllDecls for the plugin dashboard/registry listing.
func (s *State) AllPlugins() []PluginRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PluginRegistration(nil), s.plugins...)
}

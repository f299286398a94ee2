// Package stack implements the evaluator's runtime variable/environment
// stack (spec §4.6). Grounded in the teacher's executor.go worker-state
// threading (internal/engine/executor.go passes a per-node context object
// down through dependents) generalized from DAG execution context to
// lexical variable/environment scoping.
package stack

import "github.com/glint-shell/glint/internal/domain/value"

// Stack is the runtime counterpart of a WorkingSet's scope stack: it holds
// live Values for VarIDs and layered $env vars for the currently active
// overlays (spec §4.6 "vars: map from var id to Value... env_vars: layered
// per active overlay... env_hidden... active_overlays").
type Stack struct {
	vars        map[int]value.Value
	envVars     []map[string]value.Value // one layer per active overlay, innermost last
	envHidden   []map[string]bool
	overlayName []string

	// parent is set when this Stack was created by Child (to run a block,
	// closure or def body); GetVar falls through to it for a variable this
	// Stack does not hold, while env overlays are shared with the parent
	// (Child copies its layer slices). A closure's captured values are taken
	// when the closure literal is evaluated and written into the child's
	// vars when it is called.
	parent *Stack
}

// New creates a root Stack with one base env overlay.
func New() *Stack {
	return &Stack{
		vars:        make(map[int]value.Value),
		envVars:     []map[string]value.Value{make(map[string]value.Value)},
		envHidden:   []map[string]bool{make(map[string]bool)},
		overlayName: []string{"zero"},
	}
}

// Child creates a new Stack for evaluating a closure/block body, sharing
// env overlays with parent but isolating var bindings (spec §4.6 "child
// stacks for block/closure evaluation").
func (s *Stack) Child() *Stack {
	return &Stack{
		vars:        make(map[int]value.Value),
		envVars:     s.envVars,
		envHidden:   s.envHidden,
		overlayName: s.overlayName,
		parent:      s,
	}
}

// GetVar reads a variable's current value, falling through to the parent
// stack (for values not re-bound in this scope) if present.
func (s *Stack) GetVar(id int) (value.Value, bool) {
	if v, ok := s.vars[id]; ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.GetVar(id)
	}
	return value.Value{}, false
}

// SetVar binds id to v in the current (innermost) scope.
func (s *Stack) SetVar(id int, v value.Value) {
	s.vars[id] = v
}

// PushOverlay activates a new named environment overlay (spec §4.6, §4.5
// "overlay use").
func (s *Stack) PushOverlay(name string) {
	s.envVars = append(s.envVars, make(map[string]value.Value))
	s.envHidden = append(s.envHidden, make(map[string]bool))
	s.overlayName = append(s.overlayName, name)
}

// PopOverlay deactivates the innermost environment overlay.
func (s *Stack) PopOverlay() {
	n := len(s.envVars)
	if n <= 1 {
		return
	}
	s.envVars = s.envVars[:n-1]
	s.envHidden = s.envHidden[:n-1]
	s.overlayName = s.overlayName[:n-1]
}

// GetEnv resolves name against the active overlays, innermost first,
// honoring per-overlay hides.
func (s *Stack) GetEnv(name string) (value.Value, bool) {
	for i := len(s.envVars) - 1; i >= 0; i-- {
		if s.envHidden[i][name] {
			return value.Value{}, false
		}
		if v, ok := s.envVars[i][name]; ok {
			return v, true
		}
	}
	if s.parent != nil {
		return s.parent.GetEnv(name)
	}
	return value.Value{}, false
}

// SetEnv writes name into the innermost active overlay.
func (s *Stack) SetEnv(name string, v value.Value) {
	s.envVars[len(s.envVars)-1][name] = v
}

// HideEnv masks name within the innermost active overlay (spec §4.5
// "hide-env").
func (s *Stack) HideEnv(name string) {
	s.envHidden[len(s.envHidden)-1][name] = true
}

// AllEnv flattens every active overlay into one snapshot Record, honoring
// hides and innermost-wins precedence — used to build $env and by the
// external-process adapter (spec §4.10 "environment variables are drawn
// from the active stack's $env").
func (s *Stack) AllEnv() map[string]value.Value {
	out := make(map[string]value.Value)
	layers := s.collectEnvLayers()
	for _, layer := range layers {
		for k := range layer.hidden {
			delete(out, k)
		}
		for k, v := range layer.vars {
			out[k] = v
		}
	}
	return out
}

type envLayer struct {
	vars   map[string]value.Value
	hidden map[string]bool
}

func (s *Stack) collectEnvLayers() []envLayer {
	var layers []envLayer
	if s.parent != nil {
		layers = append(layers, s.parent.collectEnvLayers()...)
	}
	for i := range s.envVars {
		layers = append(layers, envLayer{vars: s.envVars[i], hidden: s.envHidden[i]})
	}
	return layers
}

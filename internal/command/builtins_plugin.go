package command

import (
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// RegistryEntry is one on-disk plugin registration (spec §6.4).
type RegistryEntry struct {
	Identity string
	Path     string
	Version  string
}

// RegistryStore persists plugin registrations across restarts (spec §6.4
// "on-disk plugin registry"). cmd/glint wires a concrete internal/registry
// implementation in; left nil, `plugin add`/`plugin rm` report a
// plugin-failure (registry_unavailable) error rather than panicking.
type RegistryStore interface {
	Add(path string) (RegistryEntry, error)
	Remove(identity string) error
	List() ([]RegistryEntry, error)
}

// registerPluginBuiltins wires `plugin add` / `plugin rm` / `plugin list`
// (SPEC_FULL's Supplemented Features: on-disk plugin registry persistence
// commands).
func registerPluginBuiltins(d *Dispatcher) {
	d.Register("plugin add", builtinPluginAdd(d))
	d.Register("plugin rm", builtinPluginRm(d))
	d.Register("plugin list", builtinPluginList(d))
}

// SetRegistryStore wires the on-disk registry (cmd/glint does this once
// internal/registry is constructed).
func (d *Dispatcher) SetRegistryStore(r RegistryStore) { d.registry = r }

func builtinPluginAdd(d *Dispatcher) BuiltinFunc {
	return func(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
		if d.registry == nil {
			return pipedata.Empty(), pkgerrors.NewPluginFailure("registry_unavailable", "no plugin registry configured", nil)
		}
		path, ok := call.Pos(0)
		if !ok || path.Kind != value.KindString {
			return pipedata.Empty(), pkgerrors.NewMissingPositional(call.Span, "path")
		}
		entry, err := d.registry.Add(path.AsString())
		if err != nil {
			return pipedata.Empty(), pkgerrors.NewPluginFailure("registration_failed", err.Error(), err)
		}
		rec := value.NewRecord()
		rec.Set("identity", value.String(entry.Identity, call.Span))
		rec.Set("path", value.String(entry.Path, call.Span))
		return pipedata.FromValue(value.RecordVal(rec, call.Span)), nil
	}
}

func builtinPluginRm(d *Dispatcher) BuiltinFunc {
	return func(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
		if d.registry == nil {
			return pipedata.Empty(), pkgerrors.NewPluginFailure("registry_unavailable", "no plugin registry configured", nil)
		}
		identity, ok := call.Pos(0)
		if !ok || identity.Kind != value.KindString {
			return pipedata.Empty(), pkgerrors.NewMissingPositional(call.Span, "identity")
		}
		if err := d.registry.Remove(identity.AsString()); err != nil {
			return pipedata.Empty(), pkgerrors.NewPluginFailure("removal_failed", err.Error(), err)
		}
		return pipedata.FromValue(value.Nothing(call.Span)), nil
	}
}

func builtinPluginList(d *Dispatcher) BuiltinFunc {
	return func(ev Evaluator, st *stack.Stack, call CallArgs, input pipedata.PipelineData) (pipedata.PipelineData, error) {
		if d.registry == nil {
			return pipedata.FromValue(value.List(nil, call.Span)), nil
		}
		entries, err := d.registry.List()
		if err != nil {
			return pipedata.Empty(), pkgerrors.NewPluginFailure("list_failed", err.Error(), err)
		}
		rows := make([]value.Value, 0, len(entries))
		for _, e := range entries {
			rec := value.NewRecord()
			rec.Set("identity", value.String(e.Identity, call.Span))
			rec.Set("path", value.String(e.Path, call.Span))
			rec.Set("version", value.String(e.Version, call.Span))
			rows = append(rows, value.RecordVal(rec, call.Span))
		}
		return pipedata.FromValue(value.List(rows, call.Span)), nil
	}
}

package main

import (
	"context"

	"github.com/glint-shell/glint/internal/config"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
	"github.com/glint-shell/glint/internal/pluginproto"
)

// engineCallHandler answers the plugin-to-host callbacks of spec §4.11
// ("Engine callbacks"): a plugin mid-call can ask for $env.config, a
// single $env var, or the current directory without the host granting it
// a live evaluator. This implementation does not hold the calling Stack
// per in-flight call: AddEnvVar sets the variable on the Stack the handler
// was built with, and EvalClosure answers with a not-supported WireError
// rather than silently no-op. Wiring either to the calling Stack would
// mean threading it through the PluginRunner.Call boundary, which
// SPEC_FULL does not require for a first plugin host.
type engineCallHandler struct {
	st  *stack.Stack
	cfg config.ShellConfig
}

func newEngineCallHandler(st *stack.Stack, cfg config.ShellConfig) *engineCallHandler {
	return &engineCallHandler{st: st, cfg: cfg}
}

func (h *engineCallHandler) HandleEngineCall(_ context.Context, call pluginproto.EngineCall) pluginproto.EngineCallResponse {
	switch call.Kind {
	case pluginproto.EngineCallGetConfig:
		v := config.ToValue(h.cfg, source.Unknown)
		wv := pluginproto.ToWire(v)
		return pluginproto.EngineCallResponse{ID: call.ID, Value: &wv}

	case pluginproto.EngineCallGetEnvVar:
		v, ok := h.st.GetEnv(call.Name)
		if !ok {
			v = value.Nothing(source.Unknown)
		}
		wv := pluginproto.ToWire(v)
		return pluginproto.EngineCallResponse{ID: call.ID, Value: &wv}

	case pluginproto.EngineCallGetCurrentDir:
		cwd, ok := h.st.GetEnv("PWD")
		if !ok {
			cwd = value.String(".", source.Unknown)
		}
		wv := pluginproto.ToWire(cwd)
		return pluginproto.EngineCallResponse{ID: call.ID, Value: &wv}

	case pluginproto.EngineCallAddEnvVar:
		if call.EnvValue != nil {
			h.st.SetEnv(call.EnvKey, pluginproto.FromWire(*call.EnvValue, source.Unknown))
		}
		return pluginproto.EngineCallResponse{ID: call.ID}

	case pluginproto.EngineCallGetHelp:
		return pluginproto.EngineCallResponse{ID: call.ID, Value: nil}

	case pluginproto.EngineCallRegisterCtrlC:
		return pluginproto.EngineCallResponse{ID: call.ID}

	case pluginproto.EngineCallEvalClosure:
		return pluginproto.EngineCallResponse{
			ID:    call.ID,
			Error: &pluginproto.WireError{Code: "unsupported_engine_call", Headline: "host cannot evaluate closures from within a plugin callback yet"},
		}

	default:
		return pluginproto.EngineCallResponse{
			ID:    call.ID,
			Error: &pluginproto.WireError{Code: "unknown_engine_call", Headline: "unrecognized engine call kind"},
		}
	}
}

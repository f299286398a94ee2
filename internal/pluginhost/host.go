package pluginhost

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Host tracks one live Client per registered plugin id and implements
// internal/command.PluginRunner, routing each call to the client spawned
// for that plugin (spec §3.6 "register_plugin ... returns handle").
type Host struct {
	mu      sync.RWMutex
	clients map[engine.PluginID]*Client
	handler EngineCallHandler
	logger  *log.Logger
}

// NewHost creates an empty Host. handler answers EngineCall callbacks for
// every plugin this Host spawns.
func NewHost(handler EngineCallHandler, logger *log.Logger) *Host {
	return &Host{clients: make(map[engine.PluginID]*Client), handler: handler, logger: logger}
}

// Connect spawns path and registers the resulting Client under id (the
// handle internal/domain/engine.State.RegisterPlugin returned).
func (h *Host) Connect(ctx context.Context, id engine.PluginID, path string, features []string) error {
	client, err := Spawn(ctx, path, features, h.handler, h.logger)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()
	return nil
}

// Call implements internal/command.PluginRunner.
func (h *Host) Call(ctx context.Context, pluginID engine.PluginID, declName string, args map[string]value.Value, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	h.mu.RLock()
	client, ok := h.clients[pluginID]
	h.mu.RUnlock()
	if !ok {
		return pipedata.Empty(), pkgerrors.NewPluginFailure("not_connected", fmt.Sprintf("plugin id %d has no live connection", pluginID), nil)
	}
	return client.Call(ctx, declName, args, input)
}

// Connected reports whether id has a live Client — the dashboard's
// plugin health indicator.
func (h *Host) Connected(id engine.PluginID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

// Disconnect closes and forgets the client registered under id.
func (h *Host) Disconnect(id engine.PluginID) error {
	h.mu.Lock()
	client, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return client.Close()
}

// Shutdown closes every live client (used on interpreter exit).
func (h *Host) Shutdown() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[engine.PluginID]*Client)
	h.mu.Unlock()
	for _, c := range clients {
		_ = c.Close()
	}
}

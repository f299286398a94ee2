// Package registry implements the on-disk plugin registry persistence of
// spec §6.4: a JSON file of plugin entries, read at startup and written
// atomically when plugins are added or removed. Entries hold filename,
// identity, version and registration time; no command signatures are
// stored, since nothing fills in an entry's Commands.
//
// Grounded in the teacher's pipeline registry (this package, pre-adaptation:
// Registry/Pipeline/RegistryFile for Streamy's registered-pipeline
// dashboard) — the JSON-file-plus-atomic-rename persistence shape is kept
// verbatim and repurposed from pipelines to plugin entries.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glint-shell/glint/internal/command"
)

// Registry manages the on-disk plugin registry. It implements
// internal/command.RegistryStore so the `plugin add`/`rm`/`list` builtins
// can be wired directly to it.
type Registry struct {
	path    string
	mu      sync.RWMutex
	version string
	plugins []PluginEntry
}

// NewRegistry creates a Registry backed by path, loading any existing
// registry file or starting empty if none exists yet.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, version: "1.0"}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	if err := r.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		r.plugins = []PluginEntry{}
	}

	return r, nil
}

// Load reads the registry from disk.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		return err
	}

	var file RegistryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse registry: %w", err)
	}

	r.version = file.Version
	r.plugins = file.Plugins
	return nil
}

// Save writes the registry to disk atomically (write to a temp file, then
// rename), so a crash mid-write never corrupts the previous contents.
func (r *Registry) Save() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file := RegistryFile{Version: r.version, Plugins: r.plugins}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// List returns every registered plugin entry.
func (r *Registry) List() ([]command.RegistryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]command.RegistryEntry, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, command.RegistryEntry{Identity: p.Identity, Path: p.Filename, Version: p.Version})
	}
	return out, nil
}

// GetEntry retrieves the full PluginEntry by identity (beyond the
// Identity/Path/Version command.RegistryEntry exposes, e.g. for the
// dashboard's richer listing).
func (r *Registry) GetEntry(identity string) (PluginEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.Identity == identity {
			return p, true
		}
	}
	return PluginEntry{}, false
}

// Add registers path as a new plugin (spec §6.4 "a plugin add command
// re-invokes the plugin to refresh"). The identity is derived from the
// filename; the entry is stored with Version "unknown" and no Commands.
// UpdateEntry can replace an entry, but cmd/glint never calls it, so those
// fields stay as Add wrote them. The registry package does not depend on
// the plugin-protocol client.
func (r *Registry) Add(path string) (command.RegistryEntry, error) {
	identity := GeneratePluginIdentity(path)

	r.mu.Lock()
	for _, existing := range r.plugins {
		if existing.Identity == identity {
			r.mu.Unlock()
			return command.RegistryEntry{}, fmt.Errorf("plugin %q already registered", identity)
		}
	}
	entry := PluginEntry{Filename: path, Identity: identity, Version: "unknown", RegisteredAt: time.Now()}
	r.plugins = append(r.plugins, entry)
	r.mu.Unlock()

	if err := r.Save(); err != nil {
		return command.RegistryEntry{}, err
	}
	return command.RegistryEntry{Identity: entry.Identity, Path: entry.Filename, Version: entry.Version}, nil
}

// UpdateEntry replaces the stored entry for identity, used once the host
// has interrogated the plugin and learned its real version/commands.
func (r *Registry) UpdateEntry(entry PluginEntry) error {
	r.mu.Lock()
	found := false
	for i, p := range r.plugins {
		if p.Identity == entry.Identity {
			r.plugins[i] = entry
			found = true
			break
		}
	}
	r.mu.Unlock()
	if !found {
		return fmt.Errorf("plugin not found: %s", entry.Identity)
	}
	return r.Save()
}

// Remove deregisters identity.
func (r *Registry) Remove(identity string) error {
	r.mu.Lock()
	found := false
	for i, p := range r.plugins {
		if p.Identity == identity {
			r.plugins = append(r.plugins[:i], r.plugins[i+1:]...)
			found = true
			break
		}
	}
	r.mu.Unlock()
	if !found {
		return fmt.Errorf("plugin not found: %s", identity)
	}
	return r.Save()
}

package registry

import "time"

// PluginEntry is one on-disk plugin registration (spec §6.4): "a file
// under the user's config directory containing an ordered list of plugin
// records: { filename, shell (optional interpreter), identity name,
// version, commands: [signature, ...], metadata }".
type PluginEntry struct {
	Filename     string            `json:"filename"`
	Shell        string            `json:"shell,omitempty"`
	Identity     string            `json:"identity"`
	Version      string            `json:"version"`
	Commands     []string          `json:"commands,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// RegistryFile is the JSON file format for the on-disk plugin registry.
type RegistryFile struct {
	Version string        `json:"version"`
	Plugins []PluginEntry `json:"plugins"`
}

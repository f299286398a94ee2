package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryNew(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)
	assert.NotNil(t, reg)

	entries, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistryLoadExisting(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	testData, err := json.Marshal(RegistryFile{
		Version: "1.0",
		Plugins: []PluginEntry{{Filename: "/usr/local/bin/nu_plugin_inc", Identity: "inc", Version: "0.1.0"}},
	})
	require.NoError(t, err)
	err = os.WriteFile(registryPath, testData, 0644)
	require.NoError(t, err)

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	entries, err := reg.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inc", entries[0].Identity)
	assert.Equal(t, "/usr/local/bin/nu_plugin_inc", entries[0].Path)
	assert.Equal(t, "0.1.0", entries[0].Version)
}

func TestRegistryAdd(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	entry, err := reg.Add("/usr/local/bin/nu_plugin_gstat")
	require.NoError(t, err)
	assert.Equal(t, "gstat", entry.Identity)

	entries, err := reg.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gstat", entries[0].Identity)
}

func TestRegistryAddDuplicate(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	_, err = reg.Add("/usr/local/bin/nu_plugin_gstat")
	require.NoError(t, err)

	_, err = reg.Add("/usr/local/bin/nu_plugin_gstat")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistryGetEntry(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	_, err = reg.Add("/usr/local/bin/nu_plugin_gstat")
	require.NoError(t, err)

	retrieved, ok := reg.GetEntry("gstat")
	require.True(t, ok)
	assert.Equal(t, "gstat", retrieved.Identity)
	assert.Equal(t, "/usr/local/bin/nu_plugin_gstat", retrieved.Filename)
}

func TestRegistryGetEntryNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	_, ok := reg.GetEntry("nonexistent")
	assert.False(t, ok)
}

func TestRegistryUpdateEntry(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	_, err = reg.Add("/usr/local/bin/nu_plugin_gstat")
	require.NoError(t, err)

	entry, ok := reg.GetEntry("gstat")
	require.True(t, ok)
	entry.Version = "0.2.0"
	entry.Commands = []string{"gstat"}

	err = reg.UpdateEntry(entry)
	require.NoError(t, err)

	retrieved, ok := reg.GetEntry("gstat")
	require.True(t, ok)
	assert.Equal(t, "0.2.0", retrieved.Version)
	assert.Equal(t, []string{"gstat"}, retrieved.Commands)
}

func TestRegistryRemove(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	_, err = reg.Add("/usr/local/bin/nu_plugin_gstat")
	require.NoError(t, err)

	err = reg.Remove("gstat")
	require.NoError(t, err)

	entries, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistryRemoveNotFound(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	err = reg.Remove("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRegistrySavePersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()
	registryPath := filepath.Join(tmpDir, "registry.json")

	reg, err := NewRegistry(registryPath)
	require.NoError(t, err)

	_, err = reg.Add("/usr/local/bin/nu_plugin_gstat")
	require.NoError(t, err)

	reg2, err := NewRegistry(registryPath)
	require.NoError(t, err)

	entries, err := reg2.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "gstat", entries[0].Identity)
}

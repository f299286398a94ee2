package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginEntryRoundTrip(t *testing.T) {
	entry := PluginEntry{
		Filename:     "/usr/local/bin/nu_plugin_inc",
		Identity:     "inc",
		Version:      "0.1.0",
		Commands:     []string{"inc"},
		Metadata:     map[string]string{"source": "registry"},
		RegisteredAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded PluginEntry
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, entry, decoded)
}

func TestPluginEntryOmitsEmptyOptionalFields(t *testing.T) {
	entry := PluginEntry{Filename: "/bin/nu_plugin_bare", Identity: "bare", Version: "0.1.0"}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var asMap map[string]any
	require.NoError(t, json.Unmarshal(data, &asMap))

	_, hasShell := asMap["shell"]
	_, hasCommands := asMap["commands"]
	_, hasMetadata := asMap["metadata"]
	assert.False(t, hasShell)
	assert.False(t, hasCommands)
	assert.False(t, hasMetadata)
}

func TestRegistryFileRoundTrip(t *testing.T) {
	file := RegistryFile{
		Version: "1.0",
		Plugins: []PluginEntry{
			{Filename: "/bin/nu_plugin_inc", Identity: "inc", Version: "0.1.0"},
		},
	}

	data, err := json.Marshal(file)
	require.NoError(t, err)

	var decoded RegistryFile
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, file, decoded)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.Empty(t, Validate(cfg))
	assert.Equal(t, "rounded", cfg.Table.Mode)
	assert.Equal(t, "auto", cfg.UseAnsiColoring)
	assert.Equal(t, "plaintext", cfg.History.FileFormat)
}

func TestToValueFromValueRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.ColorConfig = map[string]string{"string": "green"}

	v := ToValue(cfg, source.Unknown)
	got, warnings := FromValue(v, Default())

	assert.Empty(t, warnings)
	assert.Equal(t, cfg.Table, got.Table)
	assert.Equal(t, cfg.History, got.History)
	assert.Equal(t, cfg.ColorConfig, got.ColorConfig)
}

func TestFromValueMergesOverBase(t *testing.T) {
	base := Default()

	table := value.NewRecord()
	table.Set("mode", value.String("compact", source.Unknown))
	root := value.NewRecord()
	root.Set("table", value.RecordVal(table, source.Unknown))
	partial := value.RecordVal(root, source.Unknown)

	got, warnings := FromValue(partial, base)
	assert.Empty(t, warnings)
	assert.Equal(t, "compact", got.Table.Mode)
	// Untouched fields keep the base value.
	assert.Equal(t, base.History, got.History)
}

func TestFromValueWarnsOnUnknownKey(t *testing.T) {
	root := value.NewRecord()
	root.Set("bogus_setting", value.Bool(true, source.Unknown))
	v := value.RecordVal(root, source.Unknown)

	_, warnings := FromValue(v, Default())
	require.NotEmpty(t, warnings)
	assert.Equal(t, "bogus_setting", warnings[0].Field)
}

func TestFromValueRejectsNonRecord(t *testing.T) {
	_, warnings := FromValue(value.Bool(true, source.Unknown), Default())
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "record")
}

func TestValidateWarnsOnInvalidTableMode(t *testing.T) {
	cfg := Default()
	cfg.Table.Mode = "not-a-real-mode"

	warnings := Validate(cfg)
	require.NotEmpty(t, warnings)
}

func TestLoadSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Table.Mode = "compact"
	require.NoError(t, SaveSnapshot(path, cfg))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "compact", loaded.Table.Mode)
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSnapshotInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("table: [unterminated"), 0o644))

	_, err := LoadSnapshot(path)
	assert.Error(t, err)
}

package main

import (
	"os"
	"path/filepath"
)

// defaultConfigDir mirrors the teacher's ~/.streamy convention, renamed to
// ~/.glint for this interpreter's on-disk state: the plugin registry,
// history database, and env-config snapshot all live underneath it unless
// overridden by a flag.
func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".glint"), nil
}

func defaultRegistryPath() (string, error) {
	dir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "plugin_registry.json"), nil
}

func defaultEnvConfigPath() (string, error) {
	dir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// defaultHistoryPath picks the on-disk file name matching the configured
// history backend (spec §6.5 "file_format: sqlite | plaintext").
func defaultHistoryPath(fileFormat string) (string, error) {
	dir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}
	if fileFormat == "sqlite" {
		return filepath.Join(dir, "history.sqlite3"), nil
	}
	return filepath.Join(dir, "history.txt"), nil
}

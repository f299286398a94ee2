package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-shell/glint/internal/config"
)

func TestPlaintextWriterAppendAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	w, err := OpenPlaintext(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Append(Entry{CommandLine: "ls"}))
	require.NoError(t, w.Append(Entry{CommandLine: "cd /tmp"}))
	require.NoError(t, w.Append(Entry{CommandLine: "ls -la"}))

	entries, err := w.Recent(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cd /tmp", entries[0].CommandLine)
	assert.Equal(t, "ls -la", entries[1].CommandLine)
}

func TestPlaintextWriterPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	w, err := OpenPlaintext(path)
	require.NoError(t, err)
	require.NoError(t, w.Append(Entry{CommandLine: "echo hi"}))
	require.NoError(t, w.Close())

	reopened, err := OpenPlaintext(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "echo hi", entries[0].CommandLine)
}

func TestSQLiteWriterAppendAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	w, err := OpenSQLite(path)
	require.NoError(t, err)
	defer w.Close()

	start := time.Now().Truncate(time.Millisecond)
	require.NoError(t, w.Append(Entry{
		CommandLine:    "ls",
		StartTimestamp: start,
		DurationMs:     12,
		ExitStatus:     0,
		Cwd:            "/home/user",
		SessionID:      "sess-1",
		Hostname:       "box",
	}))
	require.NoError(t, w.Append(Entry{CommandLine: "false", ExitStatus: 1, StartTimestamp: start}))

	entries, err := w.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ls", entries[0].CommandLine)
	assert.Equal(t, "/home/user", entries[0].Cwd)
	assert.Equal(t, "sess-1", entries[0].SessionID)
	assert.Equal(t, "false", entries[1].CommandLine)
	assert.Equal(t, 1, entries[1].ExitStatus)
	assert.True(t, start.Equal(entries[0].StartTimestamp))
}

func TestSQLiteWriterRecentRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.sqlite")
	w, err := OpenSQLite(path)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Append(Entry{CommandLine: "cmd"}))
	}

	entries, err := w.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestOpenDispatchesOnFileFormat(t *testing.T) {
	dir := t.TempDir()

	plain, err := Open(config.HistoryConfig{FileFormat: "plaintext"}, filepath.Join(dir, "h.txt"))
	require.NoError(t, err)
	defer plain.Close()
	_, ok := plain.(*PlaintextWriter)
	assert.True(t, ok)

	sqliteWriter, err := Open(config.HistoryConfig{FileFormat: "sqlite"}, filepath.Join(dir, "h.sqlite"))
	require.NoError(t, err)
	defer sqliteWriter.Close()
	_, ok = sqliteWriter.(*SQLiteWriter)
	assert.True(t, ok)

	_, err = Open(config.HistoryConfig{FileFormat: "bogus"}, filepath.Join(dir, "h.bogus"))
	assert.Error(t, err)
}

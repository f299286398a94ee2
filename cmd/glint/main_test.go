package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// withHomeDir points os.UserHomeDir() (via $HOME) at a fresh temp dir so
// each test gets its own isolated ~/.glint, mirroring the teacher's
// pattern of redirecting on-disk state into t.TempDir() rather than
// touching the real home directory.
func withHomeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return dir
}

func newTestRoot(t *testing.T) (*bytes.Buffer, func(args ...string) error) {
	t.Helper()
	withHomeDir(t)
	buf := &bytes.Buffer{}
	return buf, func(args ...string) error {
		root := newRootCmd()
		root.SetOut(buf)
		root.SetErr(buf)
		root.SetArgs(append([]string{"--no-config-file"}, args...))
		return root.Execute()
	}
}

func TestVersionCommandOutputsBuildInfo(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	t.Cleanup(func() { version, commit, date = originalVersion, originalCommit, originalDate })
	version, commit, date = "0.9.0", "deadbeef", "2026-01-01"

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, buf.String(), "0.9.0")
	require.Contains(t, buf.String(), "deadbeef")
}

func TestCheckCommandReportsNoParseErrors(t *testing.T) {
	buf, run := newTestRoot(t)
	err := run("check", "--commands", "echo hello")
	require.NoError(t, err)
	require.Contains(t, buf.String(), "no parse errors")
}

func TestCheckCommandRendersParseErrors(t *testing.T) {
	originalExit := exitFunc
	var gotCode int
	exitFunc = func(code int) { gotCode = code }
	t.Cleanup(func() { exitFunc = originalExit })

	buf, run := newTestRoot(t)
	err := run("check", "--commands", "(")
	require.NoError(t, err)
	require.NotEmpty(t, buf.String())
	require.Equal(t, exitParseError, gotCode)
}

func TestInlineCommandsRunsAndPrintsResult(t *testing.T) {
	originalExit := exitFunc
	exitFunc = func(int) {}
	t.Cleanup(func() { exitFunc = originalExit })

	buf, run := newTestRoot(t)
	err := run("--commands", `"hello"`)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "hello")
}

func TestPluginListWithEmptyRegistry(t *testing.T) {
	buf, run := newTestRoot(t)
	require.NoError(t, run("plugin", "list"))
	require.Contains(t, buf.String(), "no plugins registered")
}

func TestPluginAddRejectsUnreachableBinary(t *testing.T) {
	home := withHomeDir(t)
	buf := &bytes.Buffer{}
	root := newRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	missing := filepath.Join(home, "does_not_exist")
	root.SetArgs([]string{"--no-config-file", "plugin", "add", missing})

	require.Error(t, root.Execute())
}

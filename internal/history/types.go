package history

import "time"

// Entry is one recorded command invocation, matching the columns of the
// SQLite schema named in spec §6.5 (`history(id, command_line,
// start_timestamp, duration_ms, exit_status, cwd, session_id,
// hostname)`). The plaintext format only ever populates CommandLine —
// the other fields are zero-valued when read back from a plaintext file.
type Entry struct {
	ID             int64
	CommandLine    string
	StartTimestamp time.Time
	DurationMs     int64
	ExitStatus     int
	Cwd            string
	SessionID      string
	Hostname       string
}

// Writer records history entries and recalls recent ones. Both the
// plaintext and SQLite backends implement it so callers (cmd/glint's
// recordHistory, run after every script, inline or REPL line) need not
// know which format is active.
type Writer interface {
	Append(entry Entry) error
	Recent(n int) ([]Entry, error)
	Close() error
}

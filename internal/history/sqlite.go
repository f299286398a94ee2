package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

func msToTime(ms int64) time.Time { return time.UnixMilli(ms) }

const createTableSQL = `
CREATE TABLE IF NOT EXISTS history (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	command_line    TEXT NOT NULL,
	start_timestamp INTEGER NOT NULL,
	duration_ms     INTEGER NOT NULL,
	exit_status     INTEGER NOT NULL,
	cwd             TEXT NOT NULL,
	session_id      TEXT NOT NULL,
	hostname        TEXT NOT NULL
);`

const insertSQL = `
INSERT INTO history (command_line, start_timestamp, duration_ms, exit_status, cwd, session_id, hostname)
VALUES (?, ?, ?, ?, ?, ?, ?);`

const recentSQL = `
SELECT id, command_line, start_timestamp, duration_ms, exit_status, cwd, session_id, hostname
FROM history ORDER BY id DESC LIMIT ?;`

// SQLiteWriter implements Writer against the schema named in spec §6.5:
// `history(id, command_line, start_timestamp, duration_ms, exit_status,
// cwd, session_id, hostname)`. Unlike PlaintextWriter it captures the
// full Entry, so Recent returns duration and exit status only when this
// format is active.
type SQLiteWriter struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the SQLite history database
// at path and ensures the schema exists.
func OpenSQLite(path string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

// Append inserts entry as a new row.
func (w *SQLiteWriter) Append(entry Entry) error {
	_, err := w.db.Exec(insertSQL,
		entry.CommandLine,
		entry.StartTimestamp.UnixMilli(),
		entry.DurationMs,
		entry.ExitStatus,
		entry.Cwd,
		entry.SessionID,
		entry.Hostname,
	)
	if err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

// Recent returns the last n entries, oldest first. n <= 0 defaults to
// the entire table.
func (w *SQLiteWriter) Recent(n int) ([]Entry, error) {
	limit := n
	if limit <= 0 {
		limit = -1 // SQLite: LIMIT -1 means "no limit".
	}

	rows, err := w.db.Query(recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query history entries: %w", err)
	}
	defer rows.Close()

	var reversed []Entry
	for rows.Next() {
		var (
			e       Entry
			startMs int64
		)
		if err := rows.Scan(&e.ID, &e.CommandLine, &startMs, &e.DurationMs, &e.ExitStatus, &e.Cwd, &e.SessionID, &e.Hostname); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.StartTimestamp = msToTime(startMs)
		reversed = append(reversed, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read history entries: %w", err)
	}

	entries := make([]Entry, len(reversed))
	for i, e := range reversed {
		entries[len(reversed)-1-i] = e
	}
	return entries, nil
}

// Close closes the underlying database handle.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

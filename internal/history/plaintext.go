package history

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// PlaintextWriter implements Writer as a plain append-only file, one
// command line per line, per spec §6.5's plaintext format. It carries
// no metadata beyond the command text: duration, exit status, cwd,
// session id and hostname are only ever available from the SQLite
// format. Format changes do not auto-migrate, so switching a session
// from plaintext to sqlite starts a fresh history file.
type PlaintextWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenPlaintext opens (creating if necessary) the history file at path
// for appending.
func OpenPlaintext(path string) (*PlaintextWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	return &PlaintextWriter{path: path, file: f}, nil
}

// Append writes entry.CommandLine as a single line.
func (w *PlaintextWriter) Append(entry Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintln(w.file, entry.CommandLine); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}

// Recent returns the last n command lines, oldest first. n <= 0 returns
// the entire file.
func (w *PlaintextWriter) Recent(n int) ([]Entry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Sync(); err != nil {
		return nil, fmt.Errorf("sync history file: %w", err)
	}

	f, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}

	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	entries := make([]Entry, len(lines))
	for i, line := range lines {
		entries[i] = Entry{CommandLine: line}
	}
	return entries, nil
}

// Close releases the underlying file handle.
func (w *PlaintextWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

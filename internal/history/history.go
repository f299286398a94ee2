// Package history persists command invocations across sessions per spec
// §6.5: either a plaintext append-only file (one command per line) or a
// SQLite database with a fixed schema. The active format is selected by
// `$env.config`'s `history.file_format`; format changes do not
// auto-migrate an existing history file.
package history

import (
	"fmt"

	"github.com/glint-shell/glint/internal/config"
)

// Open returns a Writer backed by the format named in cfg.FileFormat
// ("plaintext" or "sqlite"), persisting to path.
func Open(cfg config.HistoryConfig, path string) (Writer, error) {
	switch cfg.FileFormat {
	case "", "plaintext":
		return OpenPlaintext(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported history file_format %q", cfg.FileFormat)
	}
}

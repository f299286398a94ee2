// Package process implements the External Process Adapter of spec §4.10:
// running a host executable as a pipeline element, feeding it Value as
// stdin, and bridging its stdout into a ByteStream while translating
// abnormal exits into the ShellError taxonomy.
//
// Grounded in the teacher's command-execution path (internal/plugin's
// use of os/exec-backed plugins) and, for argv rendering, the structural
// analyzer's use of mvdan.cc/sh/v3/syntax (_examples/security-researcher-ca-AI-Agentic-Shield/internal/analyzer/structural.go),
// reused here for quoting a human-readable command line in error output.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"mvdan.cc/sh/v3/syntax"

	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/value"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Runner executes external commands on the host, implementing
// internal/command.ExternalRunner structurally (no import needed here —
// command depends on process only through that interface, wired by
// cmd/glint).
type Runner struct {
	// Stderr lets cmd/glint capture or forward the child's error
	// stream independent from the pipeline's ByteStream (spec §4.10
	// "stderr bridges independently of the pipeline").
	Stderr io.Writer
}

// New creates a Runner that forwards the external process's stderr to the
// host's own stderr, matching the teacher's convention of never
// swallowing subprocess diagnostics silently.
func New() *Runner {
	return &Runner{Stderr: os.Stderr}
}

// Run spawns name with argv, feeding it stdin derived from input if
// input carries a Value/ByteStream, and returns its stdout as a
// PipelineData ByteStream (spec §4.10 "stdout becomes the pipeline's next
// ByteStream").
func (r *Runner) Run(ctx context.Context, name string, argv []string, input pipedata.PipelineData) (pipedata.PipelineData, error) {
	cmd := exec.CommandContext(ctx, name, argv...)
	cmd.Stderr = r.Stderr
	if r.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if stdin, ok, err := stdinFor(input); err != nil {
		return pipedata.Empty(), err
	} else if ok {
		cmd.Stdin = stdin
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return pipedata.Empty(), pkgerrors.NewExternalFailure("spawn_failed", source.Unknown, commandLine(name, argv), err)
	}
	if err := cmd.Start(); err != nil {
		return pipedata.Empty(), pkgerrors.NewExternalFailure("spawn_failed", source.Unknown, commandLine(name, argv), err)
	}

	return pipedata.FromByteStream(pipedata.NewByteStream(&waitingReadCloser{r: stdout, cmd: cmd, name: name, argv: argv})), nil
}

// waitingReadCloser defers cmd.Wait() (and the exit-code/signal
// translation spec §4.10 requires) until the consumer finishes reading
// stdout, so a pipeline like `external-cmd | length` still observes a
// failing exit code after draining the stream.
type waitingReadCloser struct {
	r    io.ReadCloser
	cmd  *exec.Cmd
	name string
	argv []string
	err  error
}

func (w *waitingReadCloser) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if err == io.EOF {
		if waitErr := w.cmd.Wait(); waitErr != nil {
			w.err = translateExitError(w.name, w.argv, waitErr)
		}
	}
	return n, err
}

func (w *waitingReadCloser) Close() error {
	closeErr := w.r.Close()
	if w.err != nil {
		return w.err
	}
	return closeErr
}

func translateExitError(name string, argv []string, err error) error {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return pkgerrors.NewExternalFailure("wait_failed", source.Unknown, commandLine(name, argv), err)
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return pkgerrors.NewExternalFailure("terminated_by_signal",
			source.Unknown,
			fmt.Sprintf("%s terminated by signal %s", commandLine(name, argv), status.Signal()),
			err)
	}
	return pkgerrors.NewExternalFailure("nonzero_exit",
		source.Unknown,
		fmt.Sprintf("%s exited with status %d", commandLine(name, argv), exitErr.ExitCode()),
		err)
}

// stdinFor renders the pipeline's current Value/ByteStream as the child
// process's stdin (spec §4.10 "Value is rendered the same way `to text`
// would render it; a ByteStream is piped through unchanged").
func stdinFor(input pipedata.PipelineData) (io.Reader, bool, error) {
	if bs, ok := input.AsByteStream(); ok {
		return bs.Reader(), true, nil
	}
	v, ok := input.AsValue()
	if !ok {
		return nil, false, nil
	}
	if v.Kind == value.KindNothing {
		return nil, false, nil
	}
	if v.Kind == value.KindBinary {
		return bytes.NewReader(v.AsBinary()), true, nil
	}
	return strings.NewReader(v.Display()), true, nil
}

// commandLine renders name+argv as a shell-quoted string for diagnostics,
// reusing mvdan.cc/sh/v3/syntax's quoting rules (the same package the
// structural analyzer uses to round-trip shell AST nodes back to text) so
// error messages show exactly what a user would need to retype.
func commandLine(name string, argv []string) string {
	parts := make([]string, 0, len(argv)+1)
	parts = append(parts, quoteWord(name))
	for _, a := range argv {
		parts = append(parts, quoteWord(a))
	}
	return strings.Join(parts, " ")
}

func quoteWord(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return s
	}
	return q
}

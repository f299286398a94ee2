package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/glint-shell/glint/internal/domain/engine"
	"github.com/glint-shell/glint/internal/domain/pipedata"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/eval"
	"github.com/glint-shell/glint/internal/history"
	"github.com/glint-shell/glint/internal/parser"
	pkgerrors "github.com/glint-shell/glint/pkg/errors"
)

// Exit codes match spec §6.1's top-level executable contract: 0 success, 1
// uncaught runtime error, 2 parse error. An external process's own nonzero
// exit is folded into 1 here — process.Runner surfaces it as a ShellError
// (KindExternalFailure) rather than a raw os.ProcessState, so this
// implementation cannot recover the original numeric code without
// widening that interface; recorded as a known simplification in
// DESIGN.md.
const (
	exitSuccess    = 0
	exitRuntime    = 1
	exitParseError = 2
)

// runScript parses and evaluates src as one top-level block against the
// caller's Stack st over app's shared Engine State, appending the result
// to history. It is the single execution path that running a script file,
// `--commands`, `--stdin` and the REPL all funnel through (`check` parses
// on its own and never evaluates), mirroring the teacher's
// PrepareUseCase/ApplyUseCase pair of "parse once, execute once" steps
// collapsed here into one because the interpreter has no separate
// dry-run phase.
func runScript(ctx context.Context, app *AppContext, name, src string, st *stack.Stack) (pipedata.PipelineData, int, error) {
	fileID := app.Sources.AddFile(name, src)

	ws := engine.NewWorkingSet(app.State)
	result := parser.Parse(fileID, src, ws)
	if len(result.Errors) > 0 {
		for _, perr := range result.Errors {
			fmt.Fprint(os.Stderr, perr.Render(app.Sources))
		}
		return pipedata.Empty(), exitParseError, result.Errors[0]
	}

	ws.AddBlock(result.Block)
	ws.Merge()
	blockID := result.Block.ID

	signal := eval.NewSignal(ctx)
	ev := eval.New(app.State, app.Dispatch, signal)
	app.Eval = ev

	start := time.Now()
	pd, err := ev.EvalBlock(st, blockID, pipedata.Empty())
	duration := time.Since(start)

	exitCode := exitSuccess
	if err != nil {
		exitCode = exitRuntime
		var shellErr *pkgerrors.ShellError
		if errors.As(err, &shellErr) {
			fmt.Fprint(os.Stderr, shellErr.Render(app.Sources))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	recordHistory(app, name, start, duration, exitCode)
	return pd, exitCode, err
}

func recordHistory(app *AppContext, commandLine string, start time.Time, duration time.Duration, exitCode int) {
	if app.History == nil {
		return
	}
	hostname, _ := os.Hostname()
	cwd, _ := os.Getwd()
	entry := history.Entry{
		CommandLine:    commandLine,
		StartTimestamp: start,
		DurationMs:     duration.Milliseconds(),
		ExitStatus:     exitCode,
		Cwd:            cwd,
		Hostname:       hostname,
	}
	if err := app.History.Append(entry); err != nil {
		app.Logger.Error(err, "failed to append history entry")
	}
}

// printResult renders the final PipelineData to w the way the teacher's
// verify command renders table/value output: a single Value uses its
// Display() form, a ListStream is drained and each item displayed on its
// own line, a ByteStream is copied through raw, and Empty prints nothing.
func printResult(w io.Writer, pd pipedata.PipelineData) error {
	switch pd.Shape {
	case pipedata.ShapeEmpty:
		return nil
	case pipedata.ShapeValue:
		v, _ := pd.AsValue()
		if v.IsNothing() {
			return nil
		}
		fmt.Fprintln(w, v.Display())
		return nil
	case pipedata.ShapeListStream:
		ls, _ := pd.AsListStream()
		for {
			v, ok, err := ls.Next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			fmt.Fprintln(w, v.Display())
		}
	case pipedata.ShapeByteStream:
		bs, _ := pd.AsByteStream()
		_, err := io.Copy(w, bs.Reader())
		return err
	}
	return nil
}

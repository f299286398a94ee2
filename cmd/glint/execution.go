package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/glint-shell/glint/internal/config"
	"github.com/glint-shell/glint/internal/domain/source"
	"github.com/glint-shell/glint/internal/domain/stack"
	"github.com/glint-shell/glint/internal/domain/value"
)

// rootStack builds the base Stack every top-level script/REPL line runs
// against, seeded with $env.config and $env.PWD the way the teacher's
// AppContext wires shared config into every use case (spec §6.2 "$env.config
// ... consults at the top of each command invocation").
func rootStack(app *AppContext) *stack.Stack {
	st := stack.New()
	st.SetEnv("config", config.ToValue(app.Config, source.Unknown))
	if cwd, err := os.Getwd(); err == nil {
		st.SetEnv("PWD", value.String(cwd, source.Unknown))
	}
	return st
}

func runFile(cmd *cobra.Command, app *AppContext, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	pd, code, evalErr := runScript(cmd.Context(), app, path, string(src), rootStack(app))
	if evalErr == nil {
		if err := printResult(cmd.OutOrStdout(), pd); err != nil {
			return err
		}
	}
	exitWithCode(code)
	return nil
}

func runInline(cmd *cobra.Command, app *AppContext, src string) error {
	pd, code, evalErr := runScript(cmd.Context(), app, "<commands>", src, rootStack(app))
	if evalErr == nil {
		if err := printResult(cmd.OutOrStdout(), pd); err != nil {
			return err
		}
	}
	exitWithCode(code)
	return nil
}

func runFromStdin(cmd *cobra.Command, app *AppContext) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return err
	}
	pd, code, evalErr := runScript(cmd.Context(), app, "<stdin>", string(src), rootStack(app))
	if evalErr == nil {
		if err := printResult(cmd.OutOrStdout(), pd); err != nil {
			return err
		}
	}
	exitWithCode(code)
	return nil
}

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func findFlag[T cli.Flag](flags []cli.Flag, name string) T {
	var zero T
	for _, flag := range flags {
		if f, ok := flag.(T); ok && flag.Names()[0] == name {
			return f
		}
	}
	return zero
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level defaults to info with alias -l", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](app.Flags, "log-level")
		require.NotNil(t, f)
		assert.Equal(t, "info", f.Value)
		assert.Equal(t, []string{"l"}, f.Aliases)
	})

	t.Run("db and metrics-addr have no default", func(t *testing.T) {
		db := findFlag[*cli.StringFlag](app.Flags, "db")
		require.NotNil(t, db)
		assert.Empty(t, db.Value)
		assert.Empty(t, db.EnvVars)

		metrics := findFlag[*cli.StringFlag](app.Flags, "metrics-addr")
		require.NotNil(t, metrics)
		assert.Empty(t, metrics.Value)
	})

	t.Run("every command is registered", func(t *testing.T) {
		for _, name := range []string{"suggest", "prompt", "train", "import", "build-corpus", "prune", "optimize", "stats"} {
			findCommand(t, app, name)
		}
	})

	t.Run("suggest count defaults to 5", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](findCommand(t, app, "suggest").Flags, "count")
		require.NotNil(t, f)
		assert.Equal(t, 5, f.Value)
		assert.Equal(t, []string{"n"}, f.Aliases)
	})

	t.Run("prompt count defaults to 1", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](findCommand(t, app, "prompt").Flags, "count")
		require.NotNil(t, f)
		assert.Equal(t, 1, f.Value)
	})

	t.Run("train reports progress by default", func(t *testing.T) {
		f := findFlag[*cli.BoolFlag](findCommand(t, app, "train").Flags, "progress")
		require.NotNil(t, f)
		assert.True(t, f.Value)
	})

	t.Run("prune max-size defaults to 10", func(t *testing.T) {
		f := findFlag[*cli.IntFlag](findCommand(t, app, "prune").Flags, "max-size")
		require.NotNil(t, f)
		assert.Equal(t, 10, f.Value)
	})
}

func TestCommandValidation(t *testing.T) {
	db := filepath.Join(t.TempDir(), "db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"suggest without query", []string{"suggest"}, "query is required"},
		{"suggest with zero count", []string{"suggest", "-n", "0", "homm"}, "count must be greater than 0"},
		{"prompt with zero count", []string{"prompt", "-n", "0"}, "count must be greater than 0"},
		{"train with negative threads", []string{"train", "--threads", "-1"}, "threads must not be negative"},
		{"import without files", []string{"import"}, "log file is required"},
		{"prune with zero max-size", []string{"prune", "--max-size", "0"}, "max-size must be greater than 0"},
		{"missing config file", []string{"--config", filepath.Join(db, "missing.toml"), "stats"}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Writer = io.Discard
			app.ErrWriter = io.Discard
			args := append([]string{"didyoumean", "--db", db}, tt.args...)
			err := app.Run(args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db")
	logFile := filepath.Join(dir, "queries.log")
	log := strings.Join([]string{
		"# session, timestamp, query, hits, goal",
		"s1\t1000\theroes of night and magic\t10",
		"s1\t2000\theroes of might and magic\t10\tgoal",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(logFile, []byte(log), 0644))

	run := func(t *testing.T, stdin string, args ...string) string {
		t.Helper()
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		app.ErrWriter = io.Discard
		app.Reader = strings.NewReader(stdin)
		require.NoError(t, app.Run(append([]string{"didyoumean", "-l", "error", "--db", db}, args...)))
		return out.String()
	}

	out := run(t, "", "import", "--train", logFile)
	assert.Contains(t, out, "Imported 2 queries in 1 sessions")
	assert.Contains(t, out, "Trained 1 sessions")

	out = run(t, "", "suggest", "heroes", "of", "night", "and", "magic")
	assert.Contains(t, out, "1: heroes of might and magic")

	out = run(t, "", "suggest", "--explain", "heroes of night and magic")
	assert.Contains(t, out, `query "heroes of night and magic"`)
	assert.Contains(t, out, `result "heroes of night and magic"`)

	out = run(t, "heroes of night and magic\n\nzzz\n", "prompt", "--record")
	assert.Contains(t, out, "1: heroes of might and magic")
	assert.Contains(t, out, "no suggestion")

	out = run(t, "", "stats")
	assert.Regexp(t, `Dictionary lists:\s+2`, out)
	assert.Regexp(t, `Sessions:\s+1`, out)

	out = run(t, "", "prune", "--max-size", "1")
	assert.Contains(t, out, "Pruned 0 lists")

	out = run(t, "", "optimize")
	assert.Contains(t, out, "Optimized 0 lists")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func(check func(c *cli.Context) error) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: check,
		}
	}
	noop := func(c *cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				err := newLoggerApp(noop).Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newLoggerApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		})
		require.NoError(t, app.Run([]string{"test", "-l", "debug"}))
	})
}

package main

import (
	"bytes"
	"testing"

	"github.com/poiesic/codeindex/config"
	"github.com/poiesic/codeindex/indexing"
	"github.com/poiesic/codeindex/watch"
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
	t.Fatalf("command %q not found", name)
	return nil
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	err := app.Run(append([]string{"codeindex"}, args...))
	return out.String(), err
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("log-level defaults to info", func(t *testing.T) {
		var levelFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "log-level" {
				levelFlag = f
				break
			}
		}
		require.NotNil(t, levelFlag)
		assert.Equal(t, "info", levelFlag.Value)
		assert.Equal(t, []string{"l"}, levelFlag.Aliases)
	})

	t.Run("db has no default value", func(t *testing.T) {
		var dbFlag *cli.StringFlag
		for _, flag := range app.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "db" {
				dbFlag = f
				break
			}
		}
		require.NotNil(t, dbFlag)
		assert.Empty(t, dbFlag.Value)
		assert.False(t, dbFlag.Required)
	})

	t.Run("batch-size defaults to the indexing default", func(t *testing.T) {
		var batchFlag *cli.IntFlag
		for _, flag := range findCommand(t, app, "index").Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "batch-size" {
				batchFlag = f
				break
			}
		}
		require.NotNil(t, batchFlag)
		assert.Equal(t, indexing.DefaultBatchSize, batchFlag.Value)
	})

	t.Run("top-k defaults to 10", func(t *testing.T) {
		var topKFlag *cli.IntFlag
		for _, flag := range findCommand(t, app, "search").Flags {
			if f, ok := flag.(*cli.IntFlag); ok && f.Name == "top-k" {
				topKFlag = f
				break
			}
		}
		require.NotNil(t, topKFlag)
		assert.Equal(t, 10, topKFlag.Value)
	})

	t.Run("watch debounce has a default", func(t *testing.T) {
		var debounceFlag *cli.DurationFlag
		for _, flag := range findCommand(t, app, "watch").Flags {
			if f, ok := flag.(*cli.DurationFlag); ok && f.Name == "debounce" {
				debounceFlag = f
				break
			}
		}
		require.NotNil(t, debounceFlag)
		assert.Equal(t, watch.DefaultDebounce, debounceFlag.Value)
	})
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runApp(t, "--log-level", "loud", "status", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestCommandsRequireRoot(t *testing.T) {
	for _, cmd := range []string{"index", "reindex", "search", "clear", "status", "watch"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := runApp(t, "--backend", "memory", cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "root directory is required")
		})
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	_, err := runApp(t, "--backend", "memory", "search", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestSearchUnindexedRoot(t *testing.T) {
	_, err := runApp(t, "--backend", "memory", "search", t.TempDir(), "open", "database")
	require.Error(t, err)
	assert.ErrorIs(t, err, indexing.ErrNotIndexed)
}

func TestStatusOfUnindexedRoot(t *testing.T) {
	out, err := runApp(t, "--backend", "memory", "status", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "not indexed")
	assert.Contains(t, out, indexing.CollectionPrefix+"_")
}

func TestInvalidBackend(t *testing.T) {
	_, err := runApp(t, "--backend", "qdrant", "status", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	app := newApp()
	var got *config.Config
	findCommand(t, app, "index").Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		got = cfg
		return err
	}

	err := app.Run([]string{
		"codeindex",
		"--db", "/tmp/codeindex-test.db",
		"--backend", "sqlite",
		"--embedding-model", "nomic-embed-text",
		"index",
		"--batch-size", "16",
		"--ignore", "fixtures/**",
		"--ignore", "*.snap",
		"--collection", "shared",
		"/src",
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/tmp/codeindex-test.db", got.Storage.Path)
	assert.Equal(t, config.BackendSQLite, got.Storage.Backend)
	assert.Equal(t, "nomic-embed-text", got.Embedding.Model)
	assert.Equal(t, 16, got.Index.BatchSize)
	assert.Equal(t, []string{"fixtures/**", "*.snap"}, got.Index.IgnorePatterns)
	assert.Equal(t, "shared", got.Index.Collection)
	assert.Zero(t, got.Index.Concurrency, "unset flags keep config values")
}

func TestPreviewLines(t *testing.T) {
	content := "\n\nfunc Open(path string) (*DB, error) {   \n\tdb, err := sql.Open(\"sqlite\", path)\n\n\tif err != nil {\n\t\treturn nil, err\n"
	assert.Equal(t, []string{
		"func Open(path string) (*DB, error) {",
		"\tdb, err := sql.Open(\"sqlite\", path)",
		"\tif err != nil {",
	}, previewLines(content, 3))
	assert.Empty(t, previewLines("  \n\t\n", 3))
}

func TestProgressBarIgnoresNil(t *testing.T) {
	var bar *progressBar
	assert.NotPanics(t, bar.finish)
	assert.NotPanics(t, func() { newProgressBar().finish() })
}

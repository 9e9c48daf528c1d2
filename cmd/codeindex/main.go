// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/codeindex"
	"github.com/poiesic/codeindex/config"
	"github.com/poiesic/codeindex/core"
	"github.com/poiesic/codeindex/indexing"
	"github.com/poiesic/codeindex/search"
	"github.com/poiesic/codeindex/watch"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	indexFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Maximum chunks per embedding request",
			Value: indexing.DefaultBatchSize,
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Embedding batches processed at once (0 uses half the CPUs)",
		},
		&cli.StringSliceFlag{
			Name:  "ignore",
			Usage: "Additional ignore pattern (repeatable)",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Fixed collection name instead of one derived from the root",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress bar while embedding",
		},
	}

	return &cli.App{
		Name:  "codeindex",
		Usage: "Semantic code search over incrementally indexed source trees",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML config file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the index database (default ~/.codeindex/db)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend (badger, sqlite, memory)",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index a source tree from scratch",
				ArgsUsage: "<root>",
				Action:    indexCommand,
				Flags:     indexFlags,
			},
			{
				Name:      "reindex",
				Usage:     "Bring the index of a source tree up to date",
				ArgsUsage: "<root>",
				Action:    reindexCommand,
				Flags:     indexFlags,
			},
			{
				Name:      "search",
				Usage:     "Search an indexed source tree",
				ArgsUsage: "<root> <query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Fixed collection name instead of one derived from the root",
					},
				},
			},
			{
				Name:      "clear",
				Usage:     "Drop the index of a source tree",
				ArgsUsage: "<root>",
				Action:    clearCommand,
			},
			{
				Name:      "status",
				Usage:     "Show what is indexed for a source tree",
				ArgsUsage: "<root>",
				Action:    statusCommand,
			},
			{
				Name:      "watch",
				Usage:     "Reindex a source tree whenever it changes",
				ArgsUsage: "<root>",
				Action:    watchCommand,
				Flags: append([]cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period before a reindex starts",
						Value: watch.DefaultDebounce,
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
					},
				}, indexFlags...),
			},
		},
	}
}

// loadConfig layers the config file, the environment and the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("db") {
		cfg.Storage.Path = c.String("db")
	}
	if c.IsSet("backend") {
		cfg.Storage.Backend = c.String("backend")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("batch-size") {
		cfg.Index.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("concurrency") {
		cfg.Index.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("ignore") {
		cfg.Index.IgnorePatterns = append(cfg.Index.IgnorePatterns, c.StringSlice("ignore")...)
	}
	if c.IsSet("collection") {
		cfg.Index.Collection = c.String("collection")
	}
	return cfg, cfg.Validate()
}

func rootArg(c *cli.Context) (string, error) {
	root := c.Args().First()
	if root == "" {
		return "", errors.New("root directory is required")
	}
	return root, nil
}

func openIndex(c *cli.Context, opts ...indexing.Option) (*codeindex.Index, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return codeindex.Open("", codeindex.WithConfig(cfg), codeindex.WithIndexOptions(opts...))
}

func indexCommand(c *cli.Context) error {
	return runCycle(c, "Indexed", func(ctx context.Context, ix *indexing.Context, root string) (*indexing.Stats, error) {
		return ix.Index(ctx, root)
	})
}

func reindexCommand(c *cli.Context) error {
	return runCycle(c, "Reindexed", func(ctx context.Context, ix *indexing.Context, root string) (*indexing.Stats, error) {
		return ix.Reindex(ctx, root)
	})
}

func runCycle(c *cli.Context, verb string, fn func(context.Context, *indexing.Context, string) (*indexing.Stats, error)) error {
	root, err := rootArg(c)
	if err != nil {
		return err
	}

	var opts []indexing.Option
	var bar *progressBar
	if c.Bool("progress") {
		bar = newProgressBar()
		opts = append(opts, indexing.WithProgress(bar.update))
	}

	ix, err := openIndex(c, opts...)
	if err != nil {
		return err
	}
	defer ix.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := fn(ctx, ix.Context(), root)
	bar.finish()
	if err != nil {
		return err
	}
	printStats(c, verb, stats)
	return nil
}

func printStats(c *cli.Context, verb string, stats *indexing.Stats) {
	w := c.App.Writer
	fmt.Fprintf(w, "%s %s in %s\n", verb, stats.Root, stats.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  collection: %s\n", stats.Collection)
	fmt.Fprintf(w, "  added: %d, modified: %d, deleted: %d\n", stats.Added, stats.Modified, stats.Deleted)
	fmt.Fprintf(w, "  chunks: %d in %d batches\n", stats.Chunks, stats.Batches)
	if stats.Skipped > 0 || stats.Excluded > 0 {
		fmt.Fprintf(w, "  skipped: %d, deferred: %d\n", stats.Skipped, stats.Excluded)
	}
}

func searchCommand(c *cli.Context) error {
	root, err := rootArg(c)
	if err != nil {
		return err
	}
	query := strings.Join(c.Args().Tail(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("query is required")
	}

	ix, err := openIndex(c)
	if err != nil {
		return err
	}
	defer ix.Close()

	results, err := ix.Context().Search(c.Context, root, query, c.Int("top-k"))
	if err != nil {
		if errors.Is(err, indexing.ErrNotIndexed) {
			return fmt.Errorf("%w (run `codeindex index %s` first)", err, root)
		}
		return err
	}

	printResults(c, query, results)
	return nil
}

func printResults(c *cli.Context, query string, results []core.SearchResult) {
	w := c.App.Writer
	fmt.Fprintf(w, "Found %d hits\n", len(results))
	for i, hit := range results {
		md := hit.Metadata
		marker := ""
		if search.MatchesAllTerms(md.Content, query) {
			marker = " *"
		}
		fmt.Fprintf(w, "%d: %s:%d-%d [%0.3f]%s\n", i+1, md.Path, md.StartLine, md.EndLine, hit.Score, marker)
		for _, line := range previewLines(md.Content, 3) {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

// previewLines returns up to n non-blank lines of content.
func previewLines(content string, n int) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t\r"))
		if len(lines) == n {
			break
		}
	}
	return lines
}

func clearCommand(c *cli.Context) error {
	root, err := rootArg(c)
	if err != nil {
		return err
	}
	ix, err := openIndex(c)
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := ix.Context().Clear(c.Context, root); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cleared index of %s\n", root)
	return nil
}

func statusCommand(c *cli.Context) error {
	root, err := rootArg(c)
	if err != nil {
		return err
	}
	ix, err := openIndex(c)
	if err != nil {
		return err
	}
	defer ix.Close()

	status, err := ix.Context().Status(c.Context, root)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "root:       %s\n", status.Root)
	fmt.Fprintf(w, "collection: %s\n", status.Collection)
	if !status.Indexed {
		fmt.Fprintln(w, "status:     not indexed")
		return nil
	}
	fmt.Fprintln(w, "status:     indexed")
	fmt.Fprintf(w, "files:      %d\n", status.Files)
	fmt.Fprintf(w, "chunks:     %d\n", status.Chunks)
	return nil
}

func watchCommand(c *cli.Context) error {
	root, err := rootArg(c)
	if err != nil {
		return err
	}
	ix, err := openIndex(c)
	if err != nil {
		return err
	}
	defer ix.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := c.String("metrics-addr"); addr != "" {
		srv := serveMetrics(addr)
		defer srv.Shutdown(context.Background())
	}

	w, err := ix.NewWatcher(root, watch.WithDebounce(c.Duration("debounce")))
	if err != nil {
		return err
	}
	defer w.Close()

	slog.Info("watching for changes", "root", root)
	return w.Run(ctx)
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
	return srv
}

// progressBar renders indexing progress on stderr.
type progressBar struct {
	bar *progressbar.ProgressBar
}

func newProgressBar() *progressBar {
	return &progressBar{}
}

func (p *progressBar) update(progress core.Progress) {
	switch progress.Phase {
	case core.PhaseEmbedding:
		if p.bar == nil {
			p.bar = progressbar.NewOptions(progress.Total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("embedding"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files"),
			)
		}
		_ = p.bar.Set(progress.Processed)
	case core.PhaseDone:
		if p.bar != nil {
			_ = p.bar.Finish()
		}
	}
}

func (p *progressBar) finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Exit()
	fmt.Fprintln(os.Stderr)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

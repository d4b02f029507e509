package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/plsync/plsync/internal/cache"
	"github.com/plsync/plsync/internal/config"
	"github.com/plsync/plsync/internal/events"
	"github.com/plsync/plsync/internal/executor"
	"github.com/plsync/plsync/internal/fetch"
	"github.com/plsync/plsync/internal/pipeline"
	"github.com/plsync/plsync/internal/planner"
	"github.com/plsync/plsync/internal/thumbs"
	"github.com/plsync/plsync/pkg/youtube"
)

var syncQuiet bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one mirror pass",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd)
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "Suppress per-item progress output")
	rootCmd.AddCommand(syncCmd)
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func runSync(cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := newLogger(cfg.Log.Level)

	mode, err := planner.ParseMode(cfg.Download.Mode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	workerBin := cfg.Download.WorkerBin
	if workerBin == "" {
		workerBin = executor.DefaultWorkerBin
	}
	if _, err := exec.LookPath(workerBin); err != nil {
		return fmt.Errorf("download worker %q not found in PATH", workerBin)
	}

	if err := os.MkdirAll(cfg.Download.Dir, 0755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	// === Provider ===
	opts := []youtube.Option{
		youtube.WithLogger(logger),
		youtube.WithRateLimit(cfg.Provider.RateLimit),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, youtube.WithBaseURL(cfg.Provider.BaseURL))
	}
	client := youtube.New(cfg.Provider.APIKey, opts...)

	// === Detail cache (optional) ===
	var detailCache fetch.DetailCache
	if cfg.Cache.Enabled {
		cachePath := cfg.Cache.Path
		if cachePath == "" {
			cachePath = filepath.Join(cfg.Download.Dir, "cache.db")
		}
		c, err := cache.Open(cachePath)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer func() { _ = c.Close() }()
		detailCache = c
	}

	fetcher := fetch.New(client, detailCache, fetch.Config{
		PageSize:    cfg.Provider.PageSize,
		BatchSize:   cfg.Provider.BatchSize,
		Concurrency: cfg.Provider.Concurrency,
		Limit:       cfg.Playlist.Limit,
		CacheTTL:    time.Duration(cfg.Cache.TTLHours) * time.Hour,
	}, logger)

	// === Events ===
	bus := events.NewBus(logger)
	defer bus.Close()
	if !syncQuiet {
		go reportProgress(bus.SubscribeAll(64))
	}

	// === Executor ===
	worker := executor.NewYTDLP(workerBin, logger)
	exe := executor.New(worker, executor.Config{
		BaseDir:     cfg.Download.Dir,
		Concurrency: cfg.Download.Concurrency,
		Timeout:     time.Duration(cfg.Download.TimeoutMinutes) * time.Minute,
		AudioFormat: cfg.Download.AudioFormat,
		VideoFormat: cfg.Download.VideoFormat,
	}, bus, logger)

	var thumbFetcher *thumbs.Fetcher
	if cfg.Download.Thumbnails {
		thumbFetcher = thumbs.New(nil, logger)
	}

	planOpts := planner.Options{
		Mode:        mode,
		MaxDuration: float64(cfg.Download.MaxDurationMinutes) * 60,
	}

	p := pipeline.New(fetcher, exe, thumbFetcher, planOpts,
		cfg.Playlist.ID, cfg.Download.Dir, bus, logger)

	summary, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("fetched %d, downloaded %d, failed %d, thumbnails %d, store mutations %d\n",
		summary.Fetched, summary.Downloaded, len(summary.Failures),
		summary.Thumbnails, summary.Mutations)

	if len(summary.Failures) > 0 {
		for _, f := range summary.Failures {
			fmt.Fprintf(os.Stderr, "failed: %s (%s): %v\n", f.Item.Title, f.Item.ID, f.Err)
		}
		return fmt.Errorf("%d of %d downloads failed", len(summary.Failures), summary.Planned)
	}
	return nil
}

func reportProgress(ch <-chan events.Event) {
	for e := range ch {
		switch ev := e.(type) {
		case events.ItemStarted:
			fmt.Printf("  -> %s (%s)\n", ev.Title, ev.Action)
		case events.ItemCompleted:
			fmt.Printf("  ok %s\n", ev.Title)
		case events.ItemFailed:
			fmt.Printf("  !! %s: %s\n", ev.Title, ev.Error)
		}
	}
}

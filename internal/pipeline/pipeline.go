// Package pipeline wires the full mirror run: scan, fetch, plan, execute,
// thumbnails, merge.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/plsync/plsync/internal/events"
	"github.com/plsync/plsync/internal/executor"
	"github.com/plsync/plsync/internal/fetch"
	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/planner"
	"github.com/plsync/plsync/internal/scanner"
	"github.com/plsync/plsync/internal/store"
	"github.com/plsync/plsync/internal/thumbs"
)

// Pipeline runs one full mirror pass against a base directory. Concurrent
// runs against the same directory are not supported; the caller must ensure
// a single run at a time.
type Pipeline struct {
	fetcher    *fetch.Fetcher
	exec       *executor.Executor
	thumbs     *thumbs.Fetcher // nil disables thumbnail downloads
	planOpts   planner.Options
	playlistID string
	baseDir    string
	bus        *events.Bus
	log        *slog.Logger
}

// New assembles a pipeline. bus and thumbFetcher may be nil.
func New(fetcher *fetch.Fetcher, exec *executor.Executor, thumbFetcher *thumbs.Fetcher,
	planOpts planner.Options, playlistID, baseDir string, bus *events.Bus, log *slog.Logger) *Pipeline {

	return &Pipeline{
		fetcher:    fetcher,
		exec:       exec,
		thumbs:     thumbFetcher,
		planOpts:   planOpts,
		playlistID: playlistID,
		baseDir:    baseDir,
		bus:        bus,
		log:        log,
	}
}

// Summary reports what one run did.
type Summary struct {
	RunID      string
	Fetched    int
	Planned    int
	Downloaded int
	Thumbnails int
	Mutations  int
	Failures   []executor.ItemResult
	ThumbErr   error // non-nil when thumbnail downloads stopped early
}

// Run executes one mirror pass. Worker failures are isolated per item and
// reported in the Summary; the error return covers failures that abort the
// run (provider schema errors, disk errors, store write errors).
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	p.publish(events.NewRunStarted(summary.RunID, p.playlistID))

	state, err := scanner.Scan(p.baseDir)
	if err != nil {
		return nil, fmt.Errorf("scan disk state: %w", err)
	}

	items, err := p.fetcher.FetchAll(ctx, p.playlistID)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}
	summary.Fetched = len(items)

	work := planner.Plan(items, state, p.planOpts)
	summary.Planned = len(work)
	p.log.Info("plan ready", "run", summary.RunID, "items", len(items), "work", len(work))

	outcome, err := p.exec.Execute(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("execute plan: %w", err)
	}
	summary.Downloaded = outcome.Downloaded()
	summary.Failures = outcome.Failures()

	if p.thumbs != nil {
		n, err := p.thumbs.Fetch(ctx, items, state, p.baseDir)
		summary.Thumbnails = n
		if err != nil {
			// Thumbnail failures stop further thumbnail downloads but do
			// not discard the download results already obtained.
			summary.ThumbErr = err
			p.log.Warn("thumbnail downloads stopped", "error", err)
		}
	}

	st := store.Load(filepath.Join(p.baseDir, store.Filename), p.log)
	summary.Mutations = st.Merge(p.overlay(items, outcome))
	if err := st.Save(); err != nil {
		return nil, fmt.Errorf("persist store: %w", err)
	}

	p.publish(events.NewRunFinished(summary.RunID, summary.Downloaded, len(summary.Failures), summary.Mutations))
	p.log.Info("run complete",
		"run", summary.RunID,
		"fetched", summary.Fetched,
		"downloaded", summary.Downloaded,
		"failed", len(summary.Failures),
		"mutations", summary.Mutations)

	return summary, nil
}

// overlay replaces fetched items with their executed counterparts, so that
// resolved extensions reach the merge while untouched items pass through.
func (p *Pipeline) overlay(items []media.Item, outcome *executor.Outcome) []media.Item {
	executed := make(map[string]media.Item)
	for _, r := range outcome.Results {
		if r.Err == nil {
			executed[r.Item.ID] = r.Item
		}
	}

	merged := make([]media.Item, len(items))
	for i, item := range items {
		if done, ok := executed[item.ID]; ok {
			merged[i] = done
		} else {
			merged[i] = item
		}
	}
	return merged
}

func (p *Pipeline) publish(e events.Event) {
	if p.bus != nil {
		p.bus.Publish(e)
	}
}

// Package executor drives batches of concurrent download worker invocations
// and resolves the file extensions they report.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/plsync/plsync/internal/events"
	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/planner"
	"github.com/plsync/plsync/internal/scanner"
)

// Config bounds executor behavior.
type Config struct {
	BaseDir     string
	Concurrency int           // batch size; invocations per batch
	Timeout     time.Duration // per invocation; 0 disables
	AudioFormat string
	VideoFormat string
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.AudioFormat == "" {
		c.AudioFormat = "m4a"
	}
	if c.VideoFormat == "" {
		c.VideoFormat = "mp4"
	}
	return c
}

// ItemResult is the isolated outcome of one work item. A failed invocation
// never discards sibling results; Err records what went wrong and Item keeps
// its pre-execution state.
type ItemResult struct {
	Item   media.Item
	Action planner.Action
	Err    error
}

// Outcome aggregates per-item results in input order.
type Outcome struct {
	Results []ItemResult
}

// Items returns every item, enriched where its invocation succeeded.
func (o *Outcome) Items() []media.Item {
	items := make([]media.Item, len(o.Results))
	for i, r := range o.Results {
		items[i] = r.Item
	}
	return items
}

// Failures returns the results whose invocation failed.
func (o *Outcome) Failures() []ItemResult {
	var failed []ItemResult
	for _, r := range o.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Downloaded counts successful invocations that actually fetched something.
func (o *Outcome) Downloaded() int {
	n := 0
	for _, r := range o.Results {
		if r.Err == nil && r.Action != planner.ActionRecord {
			n++
		}
	}
	return n
}

// Executor runs planned work through the download worker.
type Executor struct {
	worker Worker
	cfg    Config
	bus    *events.Bus
	log    *slog.Logger
}

// New creates an executor. bus may be nil to disable progress events.
func New(worker Worker, cfg Config, bus *events.Bus, log *slog.Logger) *Executor {
	return &Executor{
		worker: worker,
		cfg:    cfg.withDefaults(),
		bus:    bus,
		log:    log,
	}
}

// Execute runs the work list in fixed-size batches. Every invocation in a
// batch is started concurrently and the next batch begins only once all of
// them have settled; within a batch, result order matches input order.
func (e *Executor) Execute(ctx context.Context, work []planner.WorkItem) (*Outcome, error) {
	if err := e.ensureDirs(work); err != nil {
		return nil, err
	}

	results := make([]ItemResult, len(work))

	for start := 0; start < len(work); start += e.cfg.Concurrency {
		end := min(start+e.cfg.Concurrency, len(work))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				item, err := e.runOne(ctx, work[i])
				results[i] = ItemResult{Item: item, Action: work[i].Action, Err: err}
			}(i)
		}
		wg.Wait()

		e.log.Debug("batch settled", "from", start, "to", end, "total", len(work))
	}

	return &Outcome{Results: results}, nil
}

// ensureDirs creates the artifact directories the planned actions need.
// Creation is idempotent.
func (e *Executor) ensureDirs(work []planner.WorkItem) error {
	needAudio, needVideo := false, false
	for _, w := range work {
		switch w.Action {
		case planner.ActionAudio:
			needAudio = true
		case planner.ActionVideo:
			needVideo = true
		case planner.ActionBoth:
			needAudio, needVideo = true, true
		}
	}

	if needAudio {
		if err := os.MkdirAll(e.audioDir(), 0755); err != nil {
			return fmt.Errorf("create audio dir: %w", err)
		}
	}
	if needVideo {
		if err := os.MkdirAll(e.videoDir(), 0755); err != nil {
			return fmt.Errorf("create video dir: %w", err)
		}
	}
	return nil
}

// runOne performs a single invocation and applies the resolved extensions.
// The returned item is unmodified when err is non-nil.
func (e *Executor) runOne(ctx context.Context, w planner.WorkItem) (media.Item, error) {
	item := w.Item

	if w.Action == planner.ActionRecord {
		return item, nil
	}

	e.publish(events.NewItemStarted(item.ID, item.Title, string(w.Action)))

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	result, err := e.worker.Run(ctx, Request{
		URL:            item.URL,
		Action:         w.Action,
		OutputTemplate: e.outputTemplate(item, w.Action),
		AudioFormat:    e.cfg.AudioFormat,
		VideoFormat:    e.cfg.VideoFormat,
	})
	if err != nil {
		e.log.Warn("worker failed", "item", item.ID, "action", w.Action, "error", err)
		e.publish(events.NewItemFailed(item.ID, item.Title, string(w.Action), err.Error()))
		return w.Item, err
	}

	item, err = e.applyResult(item, w.Action, result)
	if err != nil {
		e.publish(events.NewItemFailed(item.ID, item.Title, string(w.Action), err.Error()))
		return w.Item, err
	}

	e.publish(events.NewItemCompleted(item.ID, item.Title, string(w.Action)))
	return item, nil
}

// applyResult copies the worker's resolved extensions onto the item and, for
// combined downloads, relocates the extracted audio into the audio directory.
func (e *Executor) applyResult(item media.Item, action planner.Action, result *Result) (media.Item, error) {
	switch action {
	case planner.ActionAudio:
		if len(result.AudioExts) == 0 {
			return item, fmt.Errorf("item %s: %w", item.ID, ErrNoAudioResult)
		}
		item.AudioExt = &result.AudioExts[0]

	case planner.ActionVideo:
		ext := result.Ext
		item.VideoExt = &ext

	case planner.ActionBoth:
		if len(result.AudioExts) == 0 {
			return item, fmt.Errorf("item %s: %w", item.ID, ErrNoAudioResult)
		}
		ext := result.Ext
		item.VideoExt = &ext
		item.AudioExt = &result.AudioExts[0]

		// The worker writes both artifacts into the video directory;
		// move the extracted audio where the scanner expects it.
		if err := e.relocateAudio(item); err != nil {
			return item, err
		}
	}

	return item, nil
}

func (e *Executor) relocateAudio(item media.Item) error {
	name := item.BaseName() + "." + *item.AudioExt
	src := filepath.Join(e.videoDir(), name)
	dst := filepath.Join(e.audioDir(), name)

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("relocate audio for %s: %w", item.ID, err)
	}
	return nil
}

// outputTemplate builds the worker's output path template. Audio-only
// downloads land directly in the audio directory; everything else goes to
// the video directory.
func (e *Executor) outputTemplate(item media.Item, action planner.Action) string {
	dir := e.videoDir()
	if action == planner.ActionAudio {
		dir = e.audioDir()
	}
	return filepath.Join(dir, item.BaseName()+".%(ext)s")
}

func (e *Executor) audioDir() string {
	return filepath.Join(e.cfg.BaseDir, scanner.AudioDir)
}

func (e *Executor) videoDir() string {
	return filepath.Join(e.cfg.BaseDir, scanner.VideoDir)
}

func (e *Executor) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

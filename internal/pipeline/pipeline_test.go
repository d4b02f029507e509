package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/plsync/plsync/internal/executor"
	"github.com/plsync/plsync/internal/executor/mocks"
	"github.com/plsync/plsync/internal/fetch"
	"github.com/plsync/plsync/internal/planner"
	"github.com/plsync/plsync/internal/store"
	"github.com/plsync/plsync/pkg/youtube"
)

type fakeProvider struct {
	entries   []youtube.Entry
	durations map[string]string
	pageCalls int
}

func (f *fakeProvider) PlaylistPage(_ context.Context, _ string, _ int, _ string) (*youtube.PlaylistPage, error) {
	f.pageCalls++
	return &youtube.PlaylistPage{Entries: f.entries}, nil
}

func (f *fakeProvider) VideoDetails(_ context.Context, ids []string) ([]youtube.VideoDetail, error) {
	details := make([]youtube.VideoDetail, 0, len(ids))
	for _, id := range ids {
		if d, ok := f.durations[id]; ok {
			details = append(details, youtube.VideoDetail{ID: id, Duration: d})
		}
	}
	return details, nil
}

func testEntries() []youtube.Entry {
	added := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []youtube.Entry{
		{
			VideoID:      "vid1",
			Title:        "First Clip",
			ChannelID:    "ch1",
			ChannelTitle: "Channel One",
			PublishedAt:  added.Add(-time.Hour),
			AddedAt:      added,
		},
		{
			VideoID:      "vid2",
			Title:        "Second Clip",
			ChannelID:    "ch1",
			ChannelTitle: "Channel One",
			PublishedAt:  added.Add(-2 * time.Hour),
			AddedAt:      added.Add(-time.Minute),
		},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// materialize writes the file a real worker would produce for the request.
func materialize(req executor.Request, ext string) error {
	path := strings.Replace(req.OutputTemplate, "%(ext)s", ext, 1)
	return os.WriteFile(path, []byte("payload"), 0o644)
}

func newTestPipeline(t *testing.T, dir string, provider *fakeProvider, worker executor.Worker) *Pipeline {
	t.Helper()
	log := discard()
	fetcher := fetch.New(provider, nil, fetch.Config{}, log)
	exec := executor.New(worker, executor.Config{BaseDir: dir, Concurrency: 2}, nil, log)
	return New(fetcher, exec, nil, planner.Options{Mode: planner.ModeVideo}, "PL1", dir, nil, log)
}

func TestPipeline_RunDownloadsAndPersists(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeProvider{
		entries:   testEntries(),
		durations: map[string]string{"vid1": "PT3M", "vid2": "PT4M"},
	}

	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().Run(gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, req executor.Request) (*executor.Result, error) {
			require.NoError(t, materialize(req, "mp4"))
			return &executor.Result{Ext: "mp4"}, nil
		})

	p := newTestPipeline(t, dir, provider, worker)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Planned)
	assert.Equal(t, 2, summary.Downloaded)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, 2, summary.Mutations)
	assert.NotEmpty(t, summary.RunID)

	assert.FileExists(t, filepath.Join(dir, "video", "First Clip [vid1].mp4"))
	assert.FileExists(t, filepath.Join(dir, "video", "Second Clip [vid2].mp4"))

	st := store.Load(filepath.Join(dir, store.Filename), discard())
	records := st.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "vid1", records[0].ID)
	require.NotNil(t, records[0].VideoExt)
	assert.Equal(t, "mp4", *records[0].VideoExt)
	assert.InDelta(t, 180, records[0].DurationSec, 0.001)
}

func TestPipeline_SecondRunIsNoop(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeProvider{
		entries:   testEntries(),
		durations: map[string]string{"vid1": "PT3M", "vid2": "PT4M"},
	}

	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)
	// Exactly two invocations across both runs: the second run must plan
	// nothing once the artifacts and the store are in place.
	worker.EXPECT().Run(gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, req executor.Request) (*executor.Result, error) {
			require.NoError(t, materialize(req, "mp4"))
			return &executor.Result{Ext: "mp4"}, nil
		})

	p := newTestPipeline(t, dir, provider, worker)
	_, err := p.Run(context.Background())
	require.NoError(t, err)

	storePath := filepath.Join(dir, store.Filename)
	before, err := os.Stat(storePath)
	require.NoError(t, err)

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 0, summary.Planned)
	assert.Equal(t, 0, summary.Downloaded)
	assert.Equal(t, 0, summary.Mutations)

	after, err := os.Stat(storePath)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestPipeline_WorkerFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	provider := &fakeProvider{
		entries:   testEntries(),
		durations: map[string]string{"vid1": "PT3M", "vid2": "PT4M"},
	}

	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().Run(gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, req executor.Request) (*executor.Result, error) {
			if strings.Contains(req.URL, "vid2") {
				return nil, errors.New("network reset")
			}
			require.NoError(t, materialize(req, "mp4"))
			return &executor.Result{Ext: "mp4"}, nil
		})

	p := newTestPipeline(t, dir, provider, worker)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Downloaded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "vid2", summary.Failures[0].Item.ID)

	// The failed item is still recorded, just without an extension.
	st := store.Load(filepath.Join(dir, store.Filename), discard())
	records := st.Records()
	require.Len(t, records, 2)
	assert.Nil(t, records[1].VideoExt)
	assert.Equal(t, "vid2", records[1].ID)
}

func TestPipeline_FetchErrorAbortsRun(t *testing.T) {
	dir := t.TempDir()

	ctrl := gomock.NewController(t)
	worker := mocks.NewMockWorker(ctrl) // no EXPECT: the worker must never run

	log := discard()
	fetcher := fetch.New(&failingProvider{}, nil, fetch.Config{}, log)
	exec := executor.New(worker, executor.Config{BaseDir: dir, Concurrency: 2}, nil, log)
	p := New(fetcher, exec, nil, planner.Options{Mode: planner.ModeVideo}, "PL1", dir, nil, log)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch metadata")

	assert.NoFileExists(t, filepath.Join(dir, store.Filename))
}

type failingProvider struct{}

func (f *failingProvider) PlaylistPage(context.Context, string, int, string) (*youtube.PlaylistPage, error) {
	return nil, errors.New("upstream down")
}

func (f *failingProvider) VideoDetails(context.Context, []string) ([]youtube.VideoDetail, error) {
	return nil, nil
}

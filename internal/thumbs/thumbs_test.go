package thumbs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emptyState() *scanner.State {
	return &scanner.State{
		Audio:  map[string]struct{}{},
		Video:  map[string]struct{}{},
		Thumbs: map[string]struct{}{},
	}
}

func thumbItem(id, url string) media.Item {
	return media.Item{ID: id, Thumbnail: &url}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	base := t.TempDir()
	f := New(server.Client(), testLogger())

	n, err := f.Fetch(context.Background(), []media.Item{thumbItem("vid1", server.URL)}, emptyState(), base)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := os.ReadFile(filepath.Join(base, "thumbnails", "vid1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestFetch_SkipsExistingAndMissingURL(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	state := emptyState()
	state.Thumbs["have"] = struct{}{}

	items := []media.Item{
		thumbItem("have", server.URL),
		{ID: "nourl"},
	}

	f := New(server.Client(), testLogger())
	n, err := f.Fetch(context.Background(), items, state, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, calls)
}

func TestFetch_NonSuccessStopsRun(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	items := []media.Item{
		thumbItem("vid1", server.URL),
		thumbItem("vid2", server.URL),
		thumbItem("vid3", server.URL),
	}

	f := New(server.Client(), testLogger())
	n, err := f.Fetch(context.Background(), items, emptyState(), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, calls, "third download is never attempted")
}

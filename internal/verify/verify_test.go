package verify

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/scanner"
	"github.com/plsync/plsync/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strptr(s string) *string { return &s }

func setupStore(t *testing.T, base string, items ...media.Item) *store.Store {
	t.Helper()
	s := store.Load(filepath.Join(base, store.Filename), testLogger())
	s.Merge(items)
	return s
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, nil, 0644))
}

func scan(t *testing.T, base string) *scanner.State {
	t.Helper()
	state, err := scanner.Scan(base)
	require.NoError(t, err)
	return state
}

func TestRun_Clean(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "audio", "My Song [vid1].m4a"))

	s := setupStore(t, base, media.Item{ID: "vid1", Title: "My Song", AudioExt: strptr("m4a")})

	report, err := Run(s, scan(t, base), base, testLogger())
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestRun_MissingArtifact(t *testing.T) {
	base := t.TempDir()
	s := setupStore(t, base, media.Item{ID: "vid1", Title: "My Song", AudioExt: strptr("m4a")})

	report, err := Run(s, scan(t, base), base, testLogger())
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindMissing, report.Issues[0].Kind)
	assert.Equal(t, "vid1", report.Issues[0].ItemID)
}

func TestRun_UnavailableNotReportedMissing(t *testing.T) {
	base := t.TempDir()
	s := setupStore(t, base, media.Item{ID: "vid1", Title: "Gone", AudioExt: strptr("m4a"), Unavailable: true})

	report, err := Run(s, scan(t, base), base, testLogger())
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestRun_Orphan(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "video", "Mystery Clip [unknown1].mp4"))

	s := setupStore(t, base)

	report, err := Run(s, scan(t, base), base, testLogger())
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindOrphan, report.Issues[0].Kind)
	assert.Equal(t, "unknown1", report.Issues[0].ItemID)
}

func TestRun_RenameDrift(t *testing.T) {
	base := t.TempDir()
	// File was hand-renamed but still resembles the stored title.
	touch(t, filepath.Join(base, "audio", "My Favourite Song (remaster) [vid1].m4a"))

	s := setupStore(t, base, media.Item{ID: "vid1", Title: "My Favourite Song", AudioExt: strptr("m4a")})

	report, err := Run(s, scan(t, base), base, testLogger())
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindRenamed, report.Issues[0].Kind)
}

func TestRun_FileWithoutIDToken(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "audio", "random-download.m4a"))

	s := setupStore(t, base)

	report, err := Run(s, scan(t, base), base, testLogger())
	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, KindOrphan, report.Issues[0].Kind)
	assert.Empty(t, report.Issues[0].ItemID)
}

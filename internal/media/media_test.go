package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/plsync/plsync/pkg/youtube"
)

func TestFromEntry(t *testing.T) {
	added := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p := FromEntry(youtube.Entry{
		VideoID:      "vid1",
		Title:        "Some Video",
		ChannelID:    "UCchan",
		ChannelTitle: "Channel",
		PublishedAt:  published,
		AddedAt:      added,
		Thumbnails: youtube.Thumbnails{
			High: &youtube.Thumbnail{URL: "high.jpg"},
		},
	})

	assert.Equal(t, "vid1", p.ID)
	assert.Equal(t, added, p.AddedAt)
	require.NotNil(t, p.Thumbnail)
	assert.Equal(t, "high.jpg", *p.Thumbnail)
}

func TestPartialItem_Enrich(t *testing.T) {
	p := PartialItem{ID: "vid1", Title: "Some Video", ChannelID: "UCchan"}

	item := p.Enrich(125)

	assert.Equal(t, float64(125), item.DurationSec)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid1", item.URL)
	assert.Equal(t, "https://www.youtube.com/channel/UCchan", item.ChannelURL)
	assert.Nil(t, item.AudioExt)
	assert.Nil(t, item.VideoExt)
}

func TestPartialItem_Enrich_NoChannel(t *testing.T) {
	item := PartialItem{ID: "vid1", Title: "Gone"}.Enrich(0)
	assert.Empty(t, item.ChannelURL)
}

func TestItem_BaseName(t *testing.T) {
	item := Item{ID: "abc123", Title: `What: "a / test" [take 2]?`}
	assert.Equal(t, "What a test (take 2) [abc123]", item.BaseName())
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain title", "plain title"},
		{"a/b\\c", "a b c"},
		{"dots...everywhere..", "dots.everywhere"},
		{"  padded  ", "padded"},
		{"keep [brackets] out", "keep (brackets) out"},
		{"no<>:\"|?*chars", "no chars"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "leon the professional", CleanTitle("Léon: The Professional"))
	assert.Equal(t, "rock and roll", CleanTitle("Rock & Roll!!"))
}

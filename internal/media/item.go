// Package media defines the playlist item model shared across the pipeline.
package media

import (
	"fmt"
	"time"

	"github.com/plsync/plsync/pkg/youtube"
)

const (
	watchURLFormat   = "https://www.youtube.com/watch?v=%s"
	channelURLFormat = "https://www.youtube.com/channel/%s"
)

// Item is a fully enriched playlist entry, the unit persisted in the
// metadata store. AudioExt and VideoExt are nil until a download resolves
// them; DurationSec is 0 when the provider never reported a duration.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ChannelID   string    `json:"channelId"`
	ChannelName string    `json:"channelName"`
	PublishedAt time.Time `json:"publishedAt"`
	AddedAt     time.Time `json:"addedAt"`
	Thumbnail   *string   `json:"thumbnail"`
	DurationSec float64   `json:"durationSec"`
	URL         string    `json:"url"`
	ChannelURL  string    `json:"channelUrl,omitempty"`
	AudioExt    *string   `json:"audioExt"`
	VideoExt    *string   `json:"videoExt"`
	Unavailable bool      `json:"unavailable"`
}

// PartialItem is a playlist entry before duration enrichment and before any
// download has resolved file extensions.
type PartialItem struct {
	ID          string
	Title       string
	Description string
	ChannelID   string
	ChannelName string
	PublishedAt time.Time
	AddedAt     time.Time
	Thumbnail   *string
	Unavailable bool
}

// FromEntry converts a provider playlist entry into a PartialItem.
func FromEntry(e youtube.Entry) PartialItem {
	return PartialItem{
		ID:          e.VideoID,
		Title:       e.Title,
		Description: e.Description,
		ChannelID:   e.ChannelID,
		ChannelName: e.ChannelTitle,
		PublishedAt: e.PublishedAt,
		AddedAt:     e.AddedAt,
		Thumbnail:   e.Thumbnails.BestURL(),
		Unavailable: e.Unavailable,
	}
}

// Enrich completes a PartialItem with its duration. Extensions stay nil
// until the executor resolves them.
func (p PartialItem) Enrich(durationSec float64) Item {
	item := Item{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		ChannelID:   p.ChannelID,
		ChannelName: p.ChannelName,
		PublishedAt: p.PublishedAt,
		AddedAt:     p.AddedAt,
		Thumbnail:   p.Thumbnail,
		DurationSec: durationSec,
		URL:         fmt.Sprintf(watchURLFormat, p.ID),
		Unavailable: p.Unavailable,
	}
	if p.ChannelID != "" {
		item.ChannelURL = fmt.Sprintf(channelURLFormat, p.ChannelID)
	}
	return item
}

// BaseName returns the on-disk name stem for an item: the sanitized title
// followed by the bracketed id, without an extension.
func (i Item) BaseName() string {
	return fmt.Sprintf("%s [%s]", SanitizeFilename(i.Title), i.ID)
}

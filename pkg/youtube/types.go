package youtube

import (
	"fmt"
	"time"
)

// Titles the API substitutes for entries whose source video is gone.
const (
	titlePrivate = "Private video"
	titleDeleted = "Deleted video"
)

// Thumbnail is a single thumbnail variant.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Thumbnails holds every thumbnail variant the API may return.
type Thumbnails struct {
	Maxres   *Thumbnail `json:"maxres"`
	Standard *Thumbnail `json:"standard"`
	High     *Thumbnail `json:"high"`
	Medium   *Thumbnail `json:"medium"`
	Default  *Thumbnail `json:"default"`
}

// BestURL returns the highest-resolution thumbnail URL available,
// or nil when the entry has no thumbnails at all.
func (t Thumbnails) BestURL() *string {
	for _, v := range []*Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if v != nil && v.URL != "" {
			url := v.URL
			return &url
		}
	}
	return nil
}

// Entry is one parsed playlist entry. Removed or private videos appear as
// placeholders: Unavailable is set and the owner and publish fields are empty.
type Entry struct {
	VideoID      string
	Title        string
	Description  string
	ChannelID    string
	ChannelTitle string
	PublishedAt  time.Time // when the video was created; zero for placeholders
	AddedAt      time.Time // when the video was added to the playlist
	Thumbnails   Thumbnails
	Unavailable  bool
}

// PlaylistPage is one page of playlist entries.
type PlaylistPage struct {
	Entries       []Entry
	NextPageToken string // empty when this is the last page
}

// VideoDetail is the enrichment record for a single video.
type VideoDetail struct {
	ID       string
	Duration string // ISO-8601 duration expression, e.g. "PT1H2M3S"
}

// Wire types below mirror the provider's JSON shapes.

type playlistItemsResponse struct {
	Items         []playlistItemResource `json:"items"`
	NextPageToken string                 `json:"nextPageToken"`
}

type playlistItemResource struct {
	Snippet        playlistItemSnippet        `json:"snippet"`
	ContentDetails playlistItemContentDetails `json:"contentDetails"`
}

type playlistItemSnippet struct {
	Title                  string     `json:"title"`
	Description            string     `json:"description"`
	PublishedAt            string     `json:"publishedAt"` // playlist add time
	VideoOwnerChannelID    string     `json:"videoOwnerChannelId"`
	VideoOwnerChannelTitle string     `json:"videoOwnerChannelTitle"`
	ResourceID             resourceID `json:"resourceId"`
	Thumbnails             Thumbnails `json:"thumbnails"`
}

type resourceID struct {
	VideoID string `json:"videoId"`
}

type playlistItemContentDetails struct {
	VideoPublishedAt string `json:"videoPublishedAt"`
}

type videosResponse struct {
	Items []videoResource `json:"items"`
}

type videoResource struct {
	ID             string              `json:"id"`
	ContentDetails videoContentDetails `json:"contentDetails"`
}

type videoContentDetails struct {
	Duration string `json:"duration"`
}

// parseEntry converts a wire playlist item into an Entry. Placeholder entries
// (private/deleted videos) are tolerated with their fields mostly empty; any
// other shape violation is an ErrBadResponse.
func parseEntry(raw playlistItemResource) (Entry, error) {
	id := raw.Snippet.ResourceID.VideoID
	if id == "" {
		return Entry{}, fmt.Errorf("%w: entry missing video id", ErrBadResponse)
	}
	if raw.Snippet.Title == "" {
		return Entry{}, fmt.Errorf("%w: entry %s missing title", ErrBadResponse, id)
	}

	addedAt, err := time.Parse(time.RFC3339, raw.Snippet.PublishedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: entry %s bad publishedAt %q", ErrBadResponse, id, raw.Snippet.PublishedAt)
	}

	e := Entry{
		VideoID:      id,
		Title:        raw.Snippet.Title,
		Description:  raw.Snippet.Description,
		ChannelID:    raw.Snippet.VideoOwnerChannelID,
		ChannelTitle: raw.Snippet.VideoOwnerChannelTitle,
		AddedAt:      addedAt,
		Thumbnails:   raw.Snippet.Thumbnails,
	}

	if e.Title == titlePrivate || e.Title == titleDeleted {
		e.Unavailable = true
		return e, nil
	}

	if raw.ContentDetails.VideoPublishedAt != "" {
		publishedAt, err := time.Parse(time.RFC3339, raw.ContentDetails.VideoPublishedAt)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: entry %s bad videoPublishedAt %q", ErrBadResponse, id, raw.ContentDetails.VideoPublishedAt)
		}
		e.PublishedAt = publishedAt
	}

	return e, nil
}

func parseVideoDetail(raw videoResource) (VideoDetail, error) {
	if raw.ID == "" {
		return VideoDetail{}, fmt.Errorf("%w: video detail missing id", ErrBadResponse)
	}
	if raw.ContentDetails.Duration == "" {
		return VideoDetail{}, fmt.Errorf("%w: video %s missing duration", ErrBadResponse, raw.ID)
	}
	return VideoDetail{ID: raw.ID, Duration: raw.ContentDetails.Duration}, nil
}

// Package fetch retrieves playlist metadata: a paged listing pass followed
// by a batched duration enrichment pass.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/pkg/youtube"
)

const cacheKeyPrefix = "yt:video:"

// Provider is the metadata API surface the fetcher needs.
type Provider interface {
	PlaylistPage(ctx context.Context, playlistID string, pageSize int, pageToken string) (*youtube.PlaylistPage, error)
	VideoDetails(ctx context.Context, ids []string) ([]youtube.VideoDetail, error)
}

// DetailCache caches raw duration expressions between runs.
// A nil cache disables caching.
type DetailCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config bounds the fetcher's requests.
type Config struct {
	PageSize    int           // entries per listing page, capped by the provider
	BatchSize   int           // ids per detail call, capped by the provider
	Concurrency int           // concurrent detail calls
	Limit       int           // most-recent-N cap, 0 for the whole playlist
	CacheTTL    time.Duration // detail cache TTL
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 || c.PageSize > youtube.MaxPageSize {
		c.PageSize = youtube.MaxPageSize
	}
	if c.BatchSize <= 0 || c.BatchSize > youtube.MaxBatchIDs {
		c.BatchSize = youtube.MaxBatchIDs
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	return c
}

// Fetcher produces enriched playlist items.
type Fetcher struct {
	provider Provider
	cache    DetailCache
	cfg      Config
	log      *slog.Logger
}

// New creates a fetcher. cache may be nil.
func New(provider Provider, cache DetailCache, cfg Config, log *slog.Logger) *Fetcher {
	return &Fetcher{
		provider: provider,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

// FetchAll lists the playlist and enriches every entry with a duration.
// Any malformed record in either phase aborts the run; a partial listing is
// never returned.
func (f *Fetcher) FetchAll(ctx context.Context, playlistID string) ([]media.Item, error) {
	partials, err := f.listAll(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(partials))
	for _, p := range partials {
		if !p.Unavailable {
			ids = append(ids, p.ID)
		}
	}

	durations, err := f.enrich(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]media.Item, len(partials))
	for i, p := range partials {
		// Ids absent from the enrichment response keep duration 0.
		items[i] = p.Enrich(durations[p.ID])
	}

	f.log.Info("fetch complete", "playlist", playlistID, "items", len(items))
	return items, nil
}

// listAll walks the playlist pages iteratively, accumulating entries until
// the provider stops returning a continuation token or the cap is reached.
func (f *Fetcher) listAll(ctx context.Context, playlistID string) ([]media.PartialItem, error) {
	var acc []media.PartialItem
	pageToken := ""

	for {
		size := f.cfg.PageSize
		if f.cfg.Limit > 0 {
			if remaining := f.cfg.Limit - len(acc); remaining < size {
				size = remaining
			}
		}

		page, err := f.provider.PlaylistPage(ctx, playlistID, size, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list playlist %s: %w", playlistID, err)
		}

		for _, e := range page.Entries {
			acc = append(acc, media.FromEntry(e))
		}
		f.log.Debug("page accumulated", "playlist", playlistID, "total", len(acc))

		if f.cfg.Limit > 0 && len(acc) >= f.cfg.Limit {
			acc = acc[:f.cfg.Limit]
			break
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return acc, nil
}

// enrich resolves duration seconds for the given ids, batching detail calls
// and running batches concurrently up to the configured limit.
func (f *Fetcher) enrich(ctx context.Context, ids []string) (map[string]float64, error) {
	durations := make(map[string]float64, len(ids))
	var mu sync.Mutex

	misses := f.fillFromCache(ctx, ids, durations)
	if len(misses) == 0 {
		return durations, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for start := 0; start < len(misses); start += f.cfg.BatchSize {
		batch := misses[start:min(start+f.cfg.BatchSize, len(misses))]
		g.Go(func() error {
			details, err := f.provider.VideoDetails(ctx, batch)
			if err != nil {
				return fmt.Errorf("video details: %w", err)
			}
			for _, d := range details {
				secs, err := ParseISODuration(d.Duration)
				if err != nil {
					return fmt.Errorf("video %s: %w", d.ID, err)
				}
				mu.Lock()
				durations[d.ID] = secs
				mu.Unlock()
				f.cacheSet(ctx, d.ID, d.Duration)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return durations, nil
}

// fillFromCache resolves what it can from the detail cache and returns the
// ids that still need a provider call.
func (f *Fetcher) fillFromCache(ctx context.Context, ids []string, durations map[string]float64) []string {
	if f.cache == nil {
		return ids
	}

	var misses []string
	for _, id := range ids {
		raw, ok := f.cache.Get(ctx, cacheKeyPrefix+id)
		if !ok {
			misses = append(misses, id)
			continue
		}
		secs, err := ParseISODuration(string(raw))
		if err != nil {
			// Stale or corrupt cache entry; refetch.
			misses = append(misses, id)
			continue
		}
		durations[id] = secs
	}

	f.log.Debug("detail cache consulted", "hits", len(ids)-len(misses), "misses", len(misses))
	return misses
}

func (f *Fetcher) cacheSet(ctx context.Context, id, expr string) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, cacheKeyPrefix+id, []byte(expr), f.cfg.CacheTTL); err != nil {
		f.log.Warn("detail cache write failed", "id", id, "error", err)
	}
}

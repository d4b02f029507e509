// Package store persists the playlist metadata store and applies the
// per-item merge transition rules.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/plsync/plsync/internal/media"
)

// Filename is the store file name under the base directory.
const Filename = "metadata.json"

// Store is the persisted mapping of item id to enriched record.
type Store struct {
	path      string
	records   map[string]media.Item
	mutations int
	log       *slog.Logger
}

// Load reads the store file. A missing or unparsable file yields an empty
// store, not an error: the merge pass rebuilds it.
func Load(path string, log *slog.Logger) *Store {
	s := &Store{
		path:    path,
		records: make(map[string]media.Item),
		log:     log,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("store unreadable, starting empty", "path", path, "error", err)
		}
		return s
	}

	var items []media.Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn("store unparsable, starting empty", "path", path, "error", err)
		return s
	}

	for _, item := range items {
		s.records[item.ID] = item
	}
	return s
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// Get returns the record for an id.
func (s *Store) Get(id string) (media.Item, bool) {
	item, ok := s.records[id]
	return item, ok
}

// Mutations returns how many records changed since load.
func (s *Store) Mutations() int {
	return s.mutations
}

// Records returns all records sorted by playlist-add time descending.
func (s *Store) Records() []media.Item {
	items := make([]media.Item, 0, len(s.records))
	for _, item := range s.records {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.After(items[j].AddedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// Merge folds fresh records into the store and returns how many records
// mutated in this call.
func (s *Store) Merge(fresh []media.Item) int {
	mutated := 0
	for _, item := range fresh {
		if s.mergeOne(item) {
			mutated++
		}
	}
	s.mutations += mutated
	s.log.Debug("merge complete", "fresh", len(fresh), "mutated", mutated, "total", len(s.records))
	return mutated
}

// mergeOne applies the transition rules for a single fresh record.
func (s *Store) mergeOne(fresh media.Item) bool {
	prior, exists := s.records[fresh.ID]
	if !exists {
		s.records[fresh.ID] = fresh
		return true
	}

	switch {
	case prior.Unavailable && !fresh.Unavailable:
		// The item came back: fresh data wins wholesale.
		s.records[fresh.ID] = fresh
		return true

	case !prior.Unavailable && fresh.Unavailable:
		// Downgrade: flip the flag, keep everything else we knew.
		prior.Unavailable = true
		s.records[fresh.ID] = prior
		return true

	case !prior.Unavailable && !fresh.Unavailable:
		// Extensions are updated independently and only ever overwritten
		// by a non-nil fresh value.
		changed := false
		if fresh.AudioExt != nil && !extEqual(prior.AudioExt, fresh.AudioExt) {
			prior.AudioExt = fresh.AudioExt
			changed = true
		}
		if fresh.VideoExt != nil && !extEqual(prior.VideoExt, fresh.VideoExt) {
			prior.VideoExt = fresh.VideoExt
			changed = true
		}
		if changed {
			s.records[fresh.ID] = prior
		}
		return changed
	}

	// Both unavailable: nothing to learn.
	return false
}

func extEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Save rewrites the store file when at least one record changed since load.
// Records are sorted by add time descending; the write is atomic.
func (s *Store) Save() error {
	if s.mutations == 0 {
		s.log.Debug("store unchanged, skipping write", "path", s.path)
		return nil
	}

	data, err := json.MarshalIndent(s.Records(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}

	s.log.Info("store written", "path", s.path, "records", len(s.records), "mutations", s.mutations)
	return nil
}

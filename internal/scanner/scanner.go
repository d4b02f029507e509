// Package scanner discovers which item artifacts already exist on disk.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Subdirectories holding each artifact kind under the base directory.
const (
	AudioDir = "audio"
	VideoDir = "video"
	ThumbDir = "thumbnails"
)

// idSuffix matches the bracketed id token immediately preceding the
// extension: "<name> [<id>].<ext>".
var idSuffix = regexp.MustCompile(`\[([^\[\]]+)\]$`)

// State holds the identifier sets discovered on disk.
type State struct {
	Audio  map[string]struct{}
	Video  map[string]struct{}
	Thumbs map[string]struct{}
}

// HasAudio reports whether an audio artifact exists for the id.
func (s *State) HasAudio(id string) bool {
	_, ok := s.Audio[id]
	return ok
}

// HasVideo reports whether a video artifact exists for the id.
func (s *State) HasVideo(id string) bool {
	_, ok := s.Video[id]
	return ok
}

// HasThumb reports whether a thumbnail exists for the id.
func (s *State) HasThumb(id string) bool {
	_, ok := s.Thumbs[id]
	return ok
}

// Scan inspects the artifact directories under baseDir. A directory that
// does not exist yields an empty set; the executor creates it on demand.
func Scan(baseDir string) (*State, error) {
	state := &State{}

	var err error
	if state.Audio, err = scanDir(filepath.Join(baseDir, AudioDir), extractID); err != nil {
		return nil, err
	}
	if state.Video, err = scanDir(filepath.Join(baseDir, VideoDir), extractID); err != nil {
		return nil, err
	}
	if state.Thumbs, err = scanDir(filepath.Join(baseDir, ThumbDir), thumbID); err != nil {
		return nil, err
	}

	return state, nil
}

// scanDir collects the ids extracted from each regular file in dir.
func scanDir(dir string, extract func(string) (string, bool)) (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := extract(entry.Name()); ok {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// extractID pulls the bracketed id out of "<name> [<id>].<ext>".
func extractID(filename string) (string, bool) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	m := idSuffix.FindStringSubmatch(strings.TrimRight(stem, " "))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// thumbID treats the whole stem as the id: thumbnails are stored as
// "<id>.jpg".
func thumbID(filename string) (string, bool) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if stem == "" {
		return "", false
	}
	return stem, true
}

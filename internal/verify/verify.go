// Package verify cross-checks the metadata store against what is actually
// on disk and reports drift: missing artifacts, orphan files, and files
// whose title part no longer matches the stored title.
package verify

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/scanner"
	"github.com/plsync/plsync/internal/store"
)

// renameThreshold is the minimum similarity for a drifted file to be
// reported as a likely rename of the stored title rather than an orphan.
const renameThreshold = 0.5

// Issue is one verification finding.
type Issue struct {
	Kind   Kind
	ItemID string
	Path   string
	Detail string
}

// Kind classifies verification findings.
type Kind string

const (
	// KindMissing means the store records an extension but no file exists.
	KindMissing Kind = "missing"
	// KindOrphan means a file exists whose id is not in the store.
	KindOrphan Kind = "orphan"
	// KindRenamed means a file's title part drifted from the stored title.
	KindRenamed Kind = "renamed"
)

// Report is the full set of findings for one base directory.
type Report struct {
	Issues []Issue
}

// Clean reports whether no issues were found.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// Run verifies the store against the disk contents of baseDir.
func Run(s *store.Store, state *scanner.State, baseDir string, log *slog.Logger) (*Report, error) {
	report := &Report{}

	known := make(map[string]media.Item)
	for _, item := range s.Records() {
		known[item.ID] = item
	}

	// Store side: every recorded extension should have a file.
	for _, item := range s.Records() {
		if item.Unavailable {
			continue
		}
		if item.AudioExt != nil && !state.HasAudio(item.ID) {
			report.Issues = append(report.Issues, Issue{
				Kind:   KindMissing,
				ItemID: item.ID,
				Detail: fmt.Sprintf("audio artifact (.%s) recorded but not on disk", *item.AudioExt),
			})
		}
		if item.VideoExt != nil && !state.HasVideo(item.ID) {
			report.Issues = append(report.Issues, Issue{
				Kind:   KindMissing,
				ItemID: item.ID,
				Detail: fmt.Sprintf("video artifact (.%s) recorded but not on disk", *item.VideoExt),
			})
		}
	}

	// Disk side: orphan and rename detection per artifact directory.
	for _, dir := range []string{scanner.AudioDir, scanner.VideoDir} {
		if err := checkDir(filepath.Join(baseDir, dir), known, report); err != nil {
			return nil, err
		}
	}

	log.Info("verification complete", "issues", len(report.Issues))
	return report, nil
}

// nameParts splits "<title part> [<id>]" out of a filename stem.
var nameParts = regexp.MustCompile(`^(.*?)\s*\[([^\[\]]+)\]$`)

func checkDir(dir string, known map[string]media.Item, report *Report) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("verify %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		m := nameParts.FindStringSubmatch(stem)
		if m == nil {
			report.Issues = append(report.Issues, Issue{
				Kind:   KindOrphan,
				Path:   path,
				Detail: "no id token in filename",
			})
			continue
		}
		namePart, id := m[1], m[2]

		item, ok := known[id]
		if !ok {
			report.Issues = append(report.Issues, Issue{
				Kind:   KindOrphan,
				ItemID: id,
				Path:   path,
				Detail: "id not present in metadata store",
			})
			continue
		}

		expected := media.SanitizeFilename(item.Title)
		if namePart == expected {
			continue
		}

		score := float64(edlib.JaroWinklerSimilarity(
			media.CleanTitle(namePart), media.CleanTitle(item.Title)))
		if score >= renameThreshold {
			report.Issues = append(report.Issues, Issue{
				Kind:   KindRenamed,
				ItemID: id,
				Path:   path,
				Detail: fmt.Sprintf("name %q drifted from stored title %q (similarity %.2f)", namePart, item.Title, score),
			})
		} else {
			report.Issues = append(report.Issues, Issue{
				Kind:   KindOrphan,
				ItemID: id,
				Path:   path,
				Detail: fmt.Sprintf("name %q does not resemble stored title %q", namePart, item.Title),
			})
		}
	}

	return nil
}

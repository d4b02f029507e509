// Package thumbs downloads item thumbnails.
package thumbs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/scanner"
)

// Fetcher downloads missing thumbnails into the thumbnails directory.
type Fetcher struct {
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a thumbnail fetcher. httpClient may be nil.
func New(httpClient *http.Client, log *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{httpClient: httpClient, log: log}
}

// Fetch downloads a thumbnail for every item that has a thumbnail URL and no
// file on disk yet. The response body is written verbatim as "<id>.jpg".
// A non-success response stops the remaining downloads.
func (f *Fetcher) Fetch(ctx context.Context, items []media.Item, state *scanner.State, baseDir string) (int, error) {
	dir := filepath.Join(baseDir, scanner.ThumbDir)
	downloaded := 0

	for _, item := range items {
		if item.Thumbnail == nil || state.HasThumb(item.ID) {
			continue
		}

		if downloaded == 0 {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return 0, fmt.Errorf("create thumbnails dir: %w", err)
			}
		}

		if err := f.fetchOne(ctx, *item.Thumbnail, filepath.Join(dir, item.ID+".jpg")); err != nil {
			return downloaded, fmt.Errorf("thumbnail for %s: %w", item.ID, err)
		}
		downloaded++
	}

	if downloaded > 0 {
		f.log.Info("thumbnails downloaded", "count", downloaded)
	}
	return downloaded, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plsync/plsync/internal/config"
	"github.com/plsync/plsync/internal/scanner"
	"github.com/plsync/plsync/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the store and the artifacts on disk",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runStatus()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := newLogger(cfg.Log.Level)

	st := store.Load(filepath.Join(cfg.Download.Dir, store.Filename), logger)
	state, err := scanner.Scan(cfg.Download.Dir)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	unavailable := 0
	withAudio, withVideo := 0, 0
	for _, rec := range st.Records() {
		if rec.Unavailable {
			unavailable++
		}
		if rec.AudioExt != nil {
			withAudio++
		}
		if rec.VideoExt != nil {
			withVideo++
		}
	}

	fmt.Printf("store:      %d items (%d unavailable)\n", st.Len(), unavailable)
	fmt.Printf("recorded:   %d audio, %d video\n", withAudio, withVideo)
	fmt.Printf("on disk:    %d audio, %d video, %d thumbnails\n",
		len(state.Audio), len(state.Video), len(state.Thumbs))
	return nil
}

// Package planner diffs fetched metadata against disk state and decides,
// per item, what the executor has to download.
package planner

import (
	"fmt"

	"github.com/plsync/plsync/internal/media"
	"github.com/plsync/plsync/internal/scanner"
)

// Mode selects which artifact kinds a run should mirror.
type Mode string

const (
	ModeAudio Mode = "audio"
	ModeVideo Mode = "video"
	ModeBoth  Mode = "both"
	ModeNone  Mode = "none"
)

// ParseMode validates a mode string from config or flags.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAudio, ModeVideo, ModeBoth, ModeNone:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown download mode %q", s)
}

// Action is the chosen per-item operation.
type Action string

const (
	// ActionAudio downloads the audio artifact only.
	ActionAudio Action = "download-audio"
	// ActionVideo downloads the video artifact only.
	ActionVideo Action = "download-video"
	// ActionBoth downloads video and extracts audio from the same transfer.
	ActionBoth Action = "download-both"
	// ActionRecord performs no download; the item is only recorded.
	ActionRecord Action = "record-only"
)

// WorkItem pairs an item with its chosen action. Never persisted.
type WorkItem struct {
	Item   media.Item
	Action Action
}

// Options filter and shape the plan.
type Options struct {
	Mode        Mode
	MaxDuration float64 // seconds; 0 disables the cap
}

// Plan produces the work list. Items are excluded when unavailable, over
// the duration cap, or already complete on disk for the selected mode.
func Plan(items []media.Item, state *scanner.State, opts Options) []WorkItem {
	var work []WorkItem

	for _, item := range items {
		if item.Unavailable {
			continue
		}
		if opts.MaxDuration > 0 && item.DurationSec > opts.MaxDuration {
			continue
		}

		action, ok := selectAction(opts.Mode, state.HasAudio(item.ID), state.HasVideo(item.ID))
		if !ok {
			continue
		}
		work = append(work, WorkItem{Item: item, Action: action})
	}

	return work
}

// selectAction applies the mode/disk-state decision table. ActionBoth is
// preferred over two separate requests because the worker extracts audio
// from the same video transfer.
func selectAction(mode Mode, hasAudio, hasVideo bool) (Action, bool) {
	switch mode {
	case ModeBoth:
		switch {
		case !hasAudio && !hasVideo:
			return ActionBoth, true
		case hasAudio && !hasVideo:
			return ActionVideo, true
		case !hasAudio && hasVideo:
			return ActionAudio, true
		}
		return "", false
	case ModeAudio:
		if !hasAudio {
			return ActionAudio, true
		}
		return "", false
	case ModeVideo:
		if !hasVideo {
			return ActionVideo, true
		}
		return "", false
	case ModeNone:
		return ActionRecord, true
	}
	return "", false
}

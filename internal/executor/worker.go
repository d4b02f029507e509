package executor

import (
	"context"

	"github.com/plsync/plsync/internal/planner"
)

//go:generate mockgen -destination=mocks/worker.go -package=mocks github.com/plsync/plsync/internal/executor Worker

// Request describes one download worker invocation.
type Request struct {
	URL            string
	Action         planner.Action
	OutputTemplate string // path template containing an extension placeholder
	AudioFormat    string // requested audio container, e.g. "m4a"
	VideoFormat    string // requested video container, e.g. "mp4"
}

// Result is the worker's structured output. Resolved extensions may differ
// from the requested containers due to source-format negotiation.
type Result struct {
	Ext       string   // resolved container extension
	AudioExts []string // resolved audio extensions, when audio was requested
}

// Worker runs the external download process once.
type Worker interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/plsync/plsync/internal/planner"
)

// DefaultWorkerBin is the download worker binary looked up on PATH.
const DefaultWorkerBin = "yt-dlp"

// stderrTailLen bounds how much worker stderr ends up in error messages.
const stderrTailLen = 500

// YTDLP invokes the yt-dlp binary as the download worker.
type YTDLP struct {
	bin string
	log *slog.Logger
}

// NewYTDLP creates a worker adapter. bin falls back to DefaultWorkerBin.
func NewYTDLP(bin string, log *slog.Logger) *YTDLP {
	if bin == "" {
		bin = DefaultWorkerBin
	}
	return &YTDLP{bin: bin, log: log}
}

// workerOutput is the subset of yt-dlp's JSON document the executor needs.
type workerOutput struct {
	Ext                string `json:"ext"`
	RequestedDownloads []struct {
		Ext string `json:"ext"`
	} `json:"requested_downloads"`
}

// Run executes the worker once and parses its structured output. A non-zero
// exit status is reported as ErrWorkerFailed with the stderr tail attached.
func (y *YTDLP) Run(ctx context.Context, req Request) (*Result, error) {
	args := buildArgs(req)
	y.log.Debug("worker invocation", "bin", y.bin, "args", args)

	cmd := exec.CommandContext(ctx, y.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrWorkerFailed, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrWorkerFailed, err, tail(stderr.Bytes(), stderrTailLen))
	}

	var out workerOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadWorkerOutput, err)
	}
	if out.Ext == "" {
		return nil, fmt.Errorf("%w: missing ext field", ErrBadWorkerOutput)
	}

	result := &Result{Ext: out.Ext}
	for _, d := range out.RequestedDownloads {
		if d.Ext != "" {
			result.AudioExts = append(result.AudioExts, d.Ext)
		}
	}
	return result, nil
}

// buildArgs translates a Request into a yt-dlp argument list.
func buildArgs(req Request) []string {
	args := []string{
		"--no-simulate",
		"--print-json",
		"--no-progress",
		"-o", req.OutputTemplate,
	}

	switch req.Action {
	case planner.ActionAudio:
		args = append(args,
			"-f", "bestaudio/best",
			"-x", "--audio-format", req.AudioFormat,
		)
	case planner.ActionVideo:
		args = append(args,
			"-f", "bestvideo*+bestaudio/best",
			"--merge-output-format", req.VideoFormat,
		)
	case planner.ActionBoth:
		// One transfer: keep the merged video and extract audio from it.
		args = append(args,
			"-f", "bestvideo*+bestaudio/best",
			"--merge-output-format", req.VideoFormat,
			"-x", "--audio-format", req.AudioFormat,
			"--keep-video",
		)
	}

	return append(args, req.URL)
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(bytes.TrimSpace(b))
	}
	return string(bytes.TrimSpace(b[len(b)-n:]))
}

package executor

import "errors"

// Sentinel errors for the executor package.
var (
	// ErrWorkerFailed is returned when the download worker exits non-zero.
	ErrWorkerFailed = errors.New("download worker failed")

	// ErrNoAudioResult is returned when audio was requested but the worker
	// reported no resolved audio extension.
	ErrNoAudioResult = errors.New("worker reported no audio download")

	// ErrBadWorkerOutput is returned when the worker's structured output
	// cannot be parsed.
	ErrBadWorkerOutput = errors.New("unparsable worker output")
)

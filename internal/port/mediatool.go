package port

import (
	"context"
	"time"
)

// ExecResult is the outcome of one external tool invocation. Output holds the
// captured stderr stream; ffmpeg writes all diagnostics there.
type ExecResult struct {
	ExitCode int
	Output   []byte
}

// Process is a handle to a running tool invocation. The handle lives only in
// memory; once the owning process restarts the invocation can no longer be
// stopped through it.
type Process interface {
	// Wait blocks until the invocation exits and returns its result.
	Wait() *ExecResult
	// Stop asks the invocation to terminate gracefully and escalates to a
	// forced kill if it has not exited after grace. Safe to call on an
	// already-exited process.
	Stop(grace time.Duration)
}

// MediaTool wraps the streaming-media command line tools. Long-running
// operations return a Process so the caller can supervise and cancel them;
// short probes block and return their result directly.
type MediaTool interface {
	StartRecording(url, outputPath string) (Process, error)
	StartTrim(inputPath, outputPath string, startSec, endSec int) (Process, error)
	StartAudioExtract(inputPath, outputPath, bitrate string) (Process, error)
	Thumbnail(inputPath, outputPath string) error
	Duration(path string) (int, error)
	CheckStream(ctx context.Context, url string) (online bool, detail string)
}

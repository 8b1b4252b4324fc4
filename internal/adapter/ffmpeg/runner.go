// Package ffmpeg wraps the ffmpeg and ffprobe command line tools behind
// port.MediaTool. Every operation is a single invocation; retries belong to
// the orchestrators.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
)

const probeTimeout = 10 * time.Second

type Runner struct{}

func NewRunner() port.MediaTool {
	return &Runner{}
}

// process supervises one running ffmpeg invocation.
type process struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	done   chan struct{}
	result *port.ExecResult
}

func startProcess(name string, args []string) (*process, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	p := &process{
		cmd:    cmd,
		stderr: &stderr,
		done:   make(chan struct{}),
	}

	go func() {
		_ = cmd.Wait()
		p.result = &port.ExecResult{
			ExitCode: cmd.ProcessState.ExitCode(),
			Output:   p.stderr.Bytes(),
		}
		close(p.done)
	}()

	return p, nil
}

func (p *process) Wait() *port.ExecResult {
	<-p.done
	return p.result
}

func (p *process) Stop(grace time.Duration) {
	// Signal errors mean the process already exited, which is fine.
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	return nil
}

func (r *Runner) StartRecording(url, outputPath string) (port.Process, error) {
	if err := validatePath(url); err != nil {
		return nil, err
	}
	if err := validatePath(outputPath); err != nil {
		return nil, err
	}
	args := []string{
		"-y",
		"-i", url,
		"-c", "copy",
		"-f", "mp4",
		"-movflags", "+faststart",
		outputPath,
	}
	return startProcess("ffmpeg", args)
}

func (r *Runner) StartTrim(inputPath, outputPath string, startSec, endSec int) (port.Process, error) {
	if err := validatePath(inputPath); err != nil {
		return nil, err
	}
	if err := validatePath(outputPath); err != nil {
		return nil, err
	}
	// Stream copy between the cut points; -avoid_negative_ts keeps the
	// copied packets playable when the cut lands mid-GOP.
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%d", startSec),
		"-to", fmt.Sprintf("%d", endSec),
		"-i", inputPath,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-f", "mp4",
		"-movflags", "+faststart",
		outputPath,
	}
	return startProcess("ffmpeg", args)
}

func (r *Runner) StartAudioExtract(inputPath, outputPath, bitrate string) (port.Process, error) {
	if err := validatePath(inputPath); err != nil {
		return nil, err
	}
	if err := validatePath(outputPath); err != nil {
		return nil, err
	}
	args := []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", bitrate,
		"-ar", "44100",
		"-ac", "2",
		outputPath,
	}
	return startProcess("ffmpeg", args)
}

func (r *Runner) Thumbnail(inputPath, outputPath string) error {
	if err := validatePath(inputPath); err != nil {
		return err
	}
	if err := validatePath(outputPath); err != nil {
		return err
	}
	args := []string{
		"-y",
		"-i", inputPath,
		"-ss", "00:00:01",
		"-vframes", "1",
		"-vf", "scale=320:-1",
		outputPath,
	}
	cmd := exec.Command("ffmpeg", args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("thumbnail: %w", err)
	}
	return nil
}

func (r *Runner) Duration(path string) (int, error) {
	if err := validatePath(path); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	return domain.ParseProbeDuration(string(output)), nil
}

func (r *Runner) CheckStream(ctx context.Context, url string) (bool, string) {
	if err := validatePath(url); err != nil {
		return false, err.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{
		"-v", "error",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1",
		"-i", url,
	}
	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return false, "connection timeout"
	}
	if err == nil && strings.Contains(stdout.String(), "codec_type") {
		return true, "stream is online"
	}
	detail := strings.TrimSpace(stderr.String())
	if detail == "" {
		detail = "stream is offline"
	}
	return false, detail
}

var _ port.MediaTool = (*Runner)(nil)

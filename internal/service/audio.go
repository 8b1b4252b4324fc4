package service

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
)

// allowedFormats is the extraction format whitelist. mp3 is the only target
// the frontend offers today; the set stays a map so adding one is a one-line
// change.
var allowedFormats = map[string]bool{"mp3": true}

// bitratePattern accepts the strict numeric-plus-unit form: 128k, 192k, 320k.
var bitratePattern = regexp.MustCompile(`^\d{2,3}k$`)

// AudioExtractor owns extract tasks. Completed extractions are cacheable per
// (video, format): when the output file is still on disk, the prior task is
// returned instead of spawning a new process.
type AudioExtractor struct {
	videos     port.VideoStore
	tasks      port.ExtractTaskStore
	tool       port.MediaTool
	registry   *Registry
	storageDir string
}

func NewAudioExtractor(videos port.VideoStore, tasks port.ExtractTaskStore, tool port.MediaTool, storageDir string) *AudioExtractor {
	return &AudioExtractor{
		videos:     videos,
		tasks:      tasks,
		tool:       tool,
		registry:   NewRegistry(),
		storageDir: storageDir,
	}
}

func (a *AudioExtractor) Reconcile() {
	n, err := a.tasks.OrphanExtractTasks("extraction orphaned on restart")
	if err != nil {
		logger.Error.Printf("reconcile extract tasks: %v", err)
		return
	}
	if n > 0 {
		logger.Warn.Printf("marked %d orphaned extract tasks as failed", n)
	}
}

// Start launches an audio extraction for a video, or returns the existing
// completed task when its artifact is still present.
func (a *AudioExtractor) Start(videoID int64, format, bitrate string) (*domain.ExtractTask, error) {
	if !allowedFormats[format] {
		return nil, domain.ErrInvalidFormat
	}
	if !bitratePattern.MatchString(bitrate) {
		return nil, domain.ErrInvalidBitrate
	}

	video, err := a.videos.GetVideo(videoID)
	if err != nil {
		return nil, err
	}
	inputPath := video.AbsolutePath(a.storageDir)
	if _, err := os.Stat(inputPath); err != nil {
		return nil, domain.ErrFileMissing
	}

	if _, err := a.tasks.ProcessingExtractTask(videoID); err == nil {
		return nil, domain.ErrAlreadyActive
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check processing task: %w", err)
	}

	if prior, err := a.tasks.CompletedExtractTask(videoID, format); err == nil && prior.OutputPath != "" {
		if _, statErr := os.Stat(prior.OutputPath); statErr == nil {
			logger.Info.Printf("extract task %d reused for video %d (%s)", prior.ID, videoID, format)
			return prior, nil
		}
	}

	outputPath := a.outputPath(inputPath, format)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("create audio directory: %w", err)
	}

	task := &domain.ExtractTask{
		VideoID:    videoID,
		Status:     domain.ExtractStatusPending,
		Format:     format,
		Bitrate:    bitrate,
		OutputPath: outputPath,
	}
	if err := a.tasks.CreateExtractTask(task); err != nil {
		return nil, fmt.Errorf("create extract task: %w", err)
	}

	go a.run(task.ID, inputPath, outputPath, bitrate)

	return task, nil
}

// Latest returns the most recent extract task for a video.
func (a *AudioExtractor) Latest(videoID int64) (*domain.ExtractTask, error) {
	return a.tasks.LatestExtractTask(videoID)
}

// outputPath derives the artifact name from a timestamp and a stable
// fragment of the source filename, falling back to a random identifier when
// the name yields nothing usable.
func (a *AudioExtractor) outputPath(inputPath, format string) string {
	stem := domain.Stem(inputPath)
	if stem == "" {
		stem = uuid.NewString()[:8]
	}
	filename := fmt.Sprintf("%s_%s.%s", time.Now().Format("20060102_150405"), stem, format)
	return filepath.Join(a.storageDir, "audio", filename)
}

func (a *AudioExtractor) run(taskID int64, inputPath, outputPath, bitrate string) {
	task, err := a.tasks.GetExtractTask(taskID)
	if err != nil {
		logger.Error.Printf("extract task %d vanished before start: %v", taskID, err)
		return
	}

	proc, err := a.tool.StartAudioExtract(inputPath, outputPath, bitrate)
	if err != nil {
		task.Status = domain.ExtractStatusFailed
		task.ErrorMessage = domain.TruncateError(err.Error())
		task.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
		if err := a.tasks.UpdateExtractTask(task); err != nil {
			logger.Error.Printf("extract task %d: persist failure: %v", taskID, err)
		}
		return
	}
	a.registry.Register(taskID, proc)

	task.Status = domain.ExtractStatusProcessing
	if err := a.tasks.UpdateExtractTask(task); err != nil {
		logger.Error.Printf("extract task %d: persist processing state: %v", taskID, err)
	}

	result := proc.Wait()
	a.registry.Unregister(taskID)

	if result.ExitCode == 0 {
		task.Status = domain.ExtractStatusCompleted
	} else {
		task.Status = domain.ExtractStatusFailed
		task.ErrorMessage = domain.TruncateError(string(result.Output))
	}
	task.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}

	if err := a.tasks.UpdateExtractTask(task); err != nil {
		logger.Error.Printf("extract task %d: persist final state: %v", taskID, err)
		return
	}
	logger.Info.Printf("extract task %d finished: %s", taskID, task.Status)
}

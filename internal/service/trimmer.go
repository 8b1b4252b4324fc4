package service

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
)

// trimAudioBitrate is the fixed bitrate for audio extracted during a trim.
const trimAudioBitrate = "192k"

// Trimmer runs the three-step trim workflow: cut the video, optionally
// extract audio from the cut, then finalize the catalog row. Each step is
// gated on the previous one not having failed.
type Trimmer struct {
	videos       port.VideoStore
	tasks        port.TrimTaskStore
	extractTasks port.ExtractTaskStore
	tool         port.MediaTool
	registry     *Registry
	storageDir   string
}

func NewTrimmer(videos port.VideoStore, tasks port.TrimTaskStore, extractTasks port.ExtractTaskStore, tool port.MediaTool, storageDir string) *Trimmer {
	return &Trimmer{
		videos:       videos,
		tasks:        tasks,
		extractTasks: extractTasks,
		tool:         tool,
		registry:     NewRegistry(),
		storageDir:   storageDir,
	}
}

func (t *Trimmer) Reconcile() {
	n, err := t.tasks.OrphanTrimTasks("trim orphaned on restart")
	if err != nil {
		logger.Error.Printf("reconcile trim tasks: %v", err)
		return
	}
	if n > 0 {
		logger.Warn.Printf("marked %d orphaned trim tasks as failed", n)
	}
}

// Start validates the request, creates the trim task and launches the
// workflow in the background. Every precondition maps to its own sentinel so
// the caller can tell a bad range from a missing file.
func (t *Trimmer) Start(videoID int64, startSec, endSec int, extractAudio, keepOriginal bool) (*domain.TrimTask, error) {
	video, err := t.videos.GetVideo(videoID)
	if err != nil {
		return nil, err
	}
	if video.SourceKind != domain.SourceKindRecorded {
		return nil, domain.ErrWrongSourceKind
	}
	if startSec < 0 || endSec <= startSec {
		return nil, domain.ErrInvalidRange
	}
	if video.Duration > 0 && endSec > video.Duration {
		return nil, domain.ErrInvalidRange
	}

	inputPath := video.AbsolutePath(t.storageDir)
	if _, err := os.Stat(inputPath); err != nil {
		return nil, domain.ErrFileMissing
	}

	if _, err := t.tasks.ProcessingTrimTask(videoID); err == nil {
		return nil, domain.ErrAlreadyActive
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check processing trim: %w", err)
	}
	if _, err := t.extractTasks.ProcessingExtractTask(videoID); err == nil {
		return nil, domain.ErrAlreadyActive
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check processing extraction: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	trimmedPath := filepath.Join(t.storageDir, fmt.Sprintf("trimmed_%s_%d.mp4", timestamp, videoID))

	var audioPath string
	if extractAudio {
		audioPath = filepath.Join(t.storageDir, "audio", fmt.Sprintf("audio_%s_%d.mp3", timestamp, videoID))
		if err := os.MkdirAll(filepath.Dir(audioPath), 0755); err != nil {
			return nil, fmt.Errorf("create audio directory: %w", err)
		}
	}

	task := &domain.TrimTask{
		VideoID:      videoID,
		Status:       domain.TrimStatusPending,
		StartTime:    startSec,
		EndTime:      endSec,
		ExtractAudio: extractAudio,
		KeepOriginal: keepOriginal,
		AudioBitrate: trimAudioBitrate,
		TrimmedPath:  trimmedPath,
		AudioPath:    audioPath,
	}
	if err := t.tasks.CreateTrimTask(task); err != nil {
		return nil, fmt.Errorf("create trim task: %w", err)
	}

	go t.runWorkflow(task.ID, inputPath)

	return task, nil
}

// Latest returns the most recent trim task for a video.
func (t *Trimmer) Latest(videoID int64) (*domain.TrimTask, error) {
	return t.tasks.LatestTrimTask(videoID)
}

// Cancel terminates a processing trim. It is only representable while the
// cut process itself is registered; between steps there is nothing to stop
// and the request is rejected.
func (t *Trimmer) Cancel(taskID int64) bool {
	task, err := t.tasks.GetTrimTask(taskID)
	if err != nil || task.Status != domain.TrimStatusProcessing {
		return false
	}
	proc := t.registry.Get(taskID)
	if proc == nil {
		return false
	}

	// The failed status lands first so the workflow goroutine, woken by the
	// stop, sees it and does not overwrite the cancellation.
	task.Status = domain.TrimStatusFailed
	task.ErrorMessage = "task cancelled by user"
	task.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := t.tasks.UpdateTrimTask(task); err != nil {
		logger.Error.Printf("trim task %d: persist cancellation: %v", taskID, err)
		return false
	}

	proc.Stop(stopGrace)
	logger.Info.Printf("trim task %d cancelled", taskID)
	return true
}

// runWorkflow executes the steps in order. Any panic inside the workflow is
// converted to a failed task so a bug in a step can never leave a row stuck
// in a transient state.
func (t *Trimmer) runWorkflow(taskID int64, inputPath string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error.Printf("trim task %d: workflow panic: %v", taskID, r)
			t.markFailed(taskID, fmt.Sprintf("trim workflow: %v", r))
		}
	}()

	task, err := t.tasks.GetTrimTask(taskID)
	if err != nil {
		logger.Error.Printf("trim task %d vanished before start: %v", taskID, err)
		return
	}

	// Step 1: cut the video.
	if !t.runTrimStep(task, inputPath) {
		return
	}

	// The cancel path may have marked the task failed while the cut was
	// running; never resurrect it.
	task, err = t.tasks.GetTrimTask(taskID)
	if err != nil || task.Status == domain.TrimStatusFailed {
		return
	}

	// Step 2: extract audio from the trimmed output, not the original.
	if task.ExtractAudio && task.AudioPath != "" {
		if !t.runAudioStep(task) {
			return
		}
	}

	// Step 3: finalize the catalog row.
	if err := t.finalize(task, inputPath); err != nil {
		t.markFailed(taskID, fmt.Sprintf("finalize trim: %v", err))
		return
	}

	task.Status = domain.TrimStatusCompleted
	task.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := t.tasks.UpdateTrimTask(task); err != nil {
		logger.Error.Printf("trim task %d: persist completion: %v", taskID, err)
		return
	}
	logger.Info.Printf("trim task %d completed (%ds-%ds)", taskID, task.StartTime, task.EndTime)
}

func (t *Trimmer) runTrimStep(task *domain.TrimTask, inputPath string) bool {
	proc, err := t.tool.StartTrim(inputPath, task.TrimmedPath, task.StartTime, task.EndTime)
	if err != nil {
		t.markFailed(task.ID, fmt.Sprintf("start trim: %v", err))
		return false
	}
	t.registry.Register(task.ID, proc)

	task.Status = domain.TrimStatusProcessing
	if err := t.tasks.UpdateTrimTask(task); err != nil {
		logger.Error.Printf("trim task %d: persist processing state: %v", task.ID, err)
	}

	result := proc.Wait()
	t.registry.Unregister(task.ID)

	if result.ExitCode != 0 {
		// A cancelled task is already failed with its own message.
		if current, err := t.tasks.GetTrimTask(task.ID); err == nil && current.Status == domain.TrimStatusFailed {
			return false
		}
		t.markFailed(task.ID, "trim failed: "+domain.TruncateError(string(result.Output)))
		return false
	}
	return true
}

func (t *Trimmer) runAudioStep(task *domain.TrimTask) bool {
	proc, err := t.tool.StartAudioExtract(task.TrimmedPath, task.AudioPath, task.AudioBitrate)
	if err != nil {
		t.markFailed(task.ID, fmt.Sprintf("start audio extraction: %v", err))
		return false
	}

	result := proc.Wait()
	if result.ExitCode != 0 {
		t.markFailed(task.ID, "audio extraction failed: "+domain.TruncateError(string(result.Output)))
		return false
	}
	return true
}

// finalize repoints the video at the trimmed output, removes the original
// unless asked to keep it, and resets the review decision: a trimmed video
// is a different artifact from the one that was approved.
func (t *Trimmer) finalize(task *domain.TrimTask, inputPath string) error {
	video, err := t.videos.GetVideo(task.VideoID)
	if err != nil {
		return err
	}

	if !task.KeepOriginal {
		// Cleanup only; a file that cannot be removed is not worth
		// failing the whole workflow over.
		if err := os.Remove(inputPath); err != nil {
			logger.Warn.Printf("trim task %d: remove original: %v", task.ID, err)
		}
	}

	rel, err := filepath.Rel(t.storageDir, task.TrimmedPath)
	if err != nil {
		rel = task.TrimmedPath
	}
	video.FilePath = rel
	video.Duration = task.EndTime - task.StartTime
	if info, err := os.Stat(task.TrimmedPath); err == nil {
		video.FileSize = info.Size()
	}
	video.ResetReview()

	return t.videos.UpdateVideo(video)
}

func (t *Trimmer) markFailed(taskID int64, message string) {
	task, err := t.tasks.GetTrimTask(taskID)
	if err != nil {
		logger.Error.Printf("trim task %d: load for failure: %v", taskID, err)
		return
	}
	task.Status = domain.TrimStatusFailed
	task.ErrorMessage = domain.TruncateError(message)
	task.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := t.tasks.UpdateTrimTask(task); err != nil {
		logger.Error.Printf("trim task %d: persist failure: %v", taskID, err)
	}
}

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

// Recorder owns the full lifecycle of record tasks: launch, supervision of
// the capture process, and persistence of the resulting artifact.
type Recorder struct {
	sources    port.SourceStore
	tasks      port.RecordTaskStore
	videos     port.VideoStore
	tool       port.MediaTool
	registry   *Registry
	storageDir string
}

func NewRecorder(sources port.SourceStore, tasks port.RecordTaskStore, videos port.VideoStore, tool port.MediaTool, storageDir string) *Recorder {
	return &Recorder{
		sources:    sources,
		tasks:      tasks,
		videos:     videos,
		tool:       tool,
		registry:   NewRegistry(),
		storageDir: storageDir,
	}
}

// Reconcile marks tasks left mid-recording by a previous run. Their process
// handles died with that run, so the rows would otherwise stay active
// forever.
func (r *Recorder) Reconcile() {
	n, err := r.tasks.OrphanRecordTasks("recording orphaned on restart")
	if err != nil {
		logger.Error.Printf("reconcile record tasks: %v", err)
		return
	}
	if n > 0 {
		logger.Warn.Printf("marked %d orphaned record tasks as interrupted", n)
	}
}

// Start creates a record task for a source and launches the capture in the
// background. Returns domain.ErrAlreadyActive when the source is already
// being recorded and domain.ErrNotFound when it does not exist.
func (r *Recorder) Start(sourceID int64) (*domain.RecordTask, error) {
	if _, err := r.tasks.ActiveRecordTask(sourceID); err == nil {
		return nil, domain.ErrAlreadyActive
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check active task: %w", err)
	}

	source, err := r.sources.GetSource(sourceID)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s.mp4", source.Name, time.Now().Format("20060102_150405"))
	outputPath := filepath.Join(r.storageDir, filename)

	task := &domain.RecordTask{
		SourceID: sourceID,
		Status:   domain.RecordStatusPending,
		FilePath: outputPath,
	}
	if err := r.tasks.CreateRecordTask(task); err != nil {
		return nil, fmt.Errorf("create record task: %w", err)
	}

	logger.Info.Printf("record task %d created for source %d (%s)", task.ID, sourceID, logger.SanitizeForLog(source.Name))
	go r.run(task.ID, source.URL, outputPath)

	return task, nil
}

// Stop signals the capture process of an active task. The status transition
// happens in run() when it observes the signal-induced exit, not here.
func (r *Recorder) Stop(taskID int64) (*domain.RecordTask, error) {
	task, err := r.tasks.GetRecordTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.RecordStatusRecording {
		return nil, domain.ErrNotActive
	}
	if !r.registry.Stop(taskID, stopGrace) {
		return nil, domain.ErrNotActive
	}
	return task, nil
}

// Latest returns the most recent recording task for a source.
func (r *Recorder) Latest(sourceID int64) (*domain.RecordTask, error) {
	return r.tasks.LatestRecordTask(sourceID)
}

func (r *Recorder) run(taskID int64, url, outputPath string) {
	task, err := r.tasks.GetRecordTask(taskID)
	if err != nil {
		logger.Error.Printf("record task %d vanished before start: %v", taskID, err)
		return
	}

	proc, err := r.tool.StartRecording(url, outputPath)
	if err != nil {
		r.finishFailed(task, fmt.Errorf("start recording: %w", err))
		return
	}
	r.registry.Register(taskID, proc)

	task.Status = domain.RecordStatusRecording
	task.StartedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := r.tasks.UpdateRecordTask(task); err != nil {
		logger.Error.Printf("record task %d: persist recording state: %v", taskID, err)
	}

	result := proc.Wait()
	r.registry.Unregister(taskID)

	switch {
	case result.ExitCode == 0:
		task.Status = domain.RecordStatusCompleted
	case result.ExitCode == port.ExitInterrupted:
		// Expected outcome of a user-initiated stop.
		task.Status = domain.RecordStatusInterrupted
	default:
		task.Status = domain.RecordStatusFailed
		task.ErrorMessage = domain.TruncateError(string(result.Output))
	}
	task.EndedAt = sql.NullTime{Time: time.Now(), Valid: true}

	// Whatever landed on disk is kept, even a partial capture from a failed
	// or interrupted run.
	if info, statErr := os.Stat(outputPath); statErr == nil {
		task.FileSize = info.Size()
		if d, durErr := r.tool.Duration(outputPath); durErr == nil {
			task.Duration = d
		}
		r.createArtifact(task, outputPath)
	}

	if err := r.tasks.UpdateRecordTask(task); err != nil {
		logger.Error.Printf("record task %d: persist final state: %v", taskID, err)
		return
	}
	logger.Info.Printf("record task %d finished: %s", taskID, task.Status)
}

func (r *Recorder) createArtifact(task *domain.RecordTask, outputPath string) {
	rel, err := filepath.Rel(r.storageDir, outputPath)
	if err != nil {
		rel = outputPath
	}
	video := &domain.Video{
		TaskID:     sql.NullInt64{Int64: task.ID, Valid: true},
		Title:      domain.Stem(outputPath),
		FilePath:   rel,
		FileSize:   task.FileSize,
		Duration:   task.Duration,
		SourceKind: domain.SourceKindRecorded,
		FileKind:   domain.FileKindVideo,
	}
	if err := r.videos.CreateVideo(video); err != nil {
		logger.Error.Printf("record task %d: create video artifact: %v", task.ID, err)
	}
}

func (r *Recorder) finishFailed(task *domain.RecordTask, cause error) {
	task.Status = domain.RecordStatusFailed
	task.ErrorMessage = domain.TruncateError(cause.Error())
	task.EndedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := r.tasks.UpdateRecordTask(task); err != nil {
		logger.Error.Printf("record task %d: persist failure: %v", task.ID, err)
	}
}

package port

import (
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

type SourceStore interface {
	GetSource(id int64) (*domain.Source, error)
	ListActiveSources() ([]*domain.Source, error)
	// UpdateSourceStatus writes the liveness fields only. Status is never
	// mutated through the general source update path.
	UpdateSourceStatus(id int64, online bool, checkedAt time.Time) error
}

type RecordTaskStore interface {
	CreateRecordTask(t *domain.RecordTask) error
	GetRecordTask(id int64) (*domain.RecordTask, error)
	// ActiveRecordTask returns the recording task for a source, or
	// domain.ErrNotFound when none is active.
	ActiveRecordTask(sourceID int64) (*domain.RecordTask, error)
	LatestRecordTask(sourceID int64) (*domain.RecordTask, error)
	UpdateRecordTask(t *domain.RecordTask) error
	// OrphanRecordTasks marks tasks left in the recording state by a prior
	// run as interrupted. Returns the number of rows touched.
	OrphanRecordTasks(message string) (int64, error)
}

type ExtractTaskStore interface {
	CreateExtractTask(t *domain.ExtractTask) error
	GetExtractTask(id int64) (*domain.ExtractTask, error)
	ProcessingExtractTask(videoID int64) (*domain.ExtractTask, error)
	// CompletedExtractTask returns the most recent completed task for the
	// (video, format) pair, or domain.ErrNotFound.
	CompletedExtractTask(videoID int64, format string) (*domain.ExtractTask, error)
	LatestExtractTask(videoID int64) (*domain.ExtractTask, error)
	UpdateExtractTask(t *domain.ExtractTask) error
	OrphanExtractTasks(message string) (int64, error)
}

type TrimTaskStore interface {
	CreateTrimTask(t *domain.TrimTask) error
	GetTrimTask(id int64) (*domain.TrimTask, error)
	ProcessingTrimTask(videoID int64) (*domain.TrimTask, error)
	LatestTrimTask(videoID int64) (*domain.TrimTask, error)
	UpdateTrimTask(t *domain.TrimTask) error
	OrphanTrimTasks(message string) (int64, error)
}

type UploadStore interface {
	CreateUploadSession(s *domain.UploadSession) error
	GetUploadSession(id string) (*domain.UploadSession, error)
	UpdateUploadSession(s *domain.UploadSession) error
	DeleteUploadSession(id string) error
}

type VideoStore interface {
	CreateVideo(v *domain.Video) error
	GetVideo(id int64) (*domain.Video, error)
	UpdateVideo(v *domain.Video) error
}

type ScheduleStore interface {
	ListActiveSchedules() ([]*domain.Schedule, error)
	GetSchedule(id int64) (*domain.Schedule, error)
	TouchScheduleRun(id int64, ranAt time.Time) error
}

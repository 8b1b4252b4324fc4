package domain

import (
	"database/sql"
	"time"
)

// Each task kind carries its own closed status set. The sets overlap but are
// deliberately not shared: a recording can end interrupted, an upload never
// passes through pending, and collapsing them into one enum has caused
// transition bugs in every system that tried.

type RecordStatus string

const (
	RecordStatusPending     RecordStatus = "pending"
	RecordStatusRecording   RecordStatus = "recording"
	RecordStatusCompleted   RecordStatus = "completed"
	RecordStatusFailed      RecordStatus = "failed"
	RecordStatusInterrupted RecordStatus = "interrupted"
)

// RecordTask is one attempt at capturing a live source to disk.
type RecordTask struct {
	ID           int64        `json:"id"`
	SourceID     int64        `json:"source_id"`
	Status       RecordStatus `json:"status"`
	FilePath     string       `json:"file_path"`
	FileSize     int64        `json:"file_size"`
	Duration     int          `json:"duration"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    sql.NullTime `json:"started_at"`
	EndedAt      sql.NullTime `json:"ended_at"`
}

// Terminal reports whether the task can no longer change state.
func (t *RecordTask) Terminal() bool {
	switch t.Status {
	case RecordStatusCompleted, RecordStatusFailed, RecordStatusInterrupted:
		return true
	}
	return false
}

type ExtractStatus string

const (
	ExtractStatusPending    ExtractStatus = "pending"
	ExtractStatusProcessing ExtractStatus = "processing"
	ExtractStatusCompleted  ExtractStatus = "completed"
	ExtractStatusFailed     ExtractStatus = "failed"
)

// ExtractTask is one attempt at pulling an audio track out of a video.
// Extractions are cacheable per (video, format): a completed task whose
// output file still exists is returned instead of starting a new one.
type ExtractTask struct {
	ID           int64         `json:"id"`
	VideoID      int64         `json:"video_id"`
	Status       ExtractStatus `json:"status"`
	Format       string        `json:"format"`
	Bitrate      string        `json:"bitrate"`
	OutputPath   string        `json:"output_path"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  sql.NullTime  `json:"completed_at"`
}

type TrimStatus string

const (
	TrimStatusPending    TrimStatus = "pending"
	TrimStatusProcessing TrimStatus = "processing"
	TrimStatusCompleted  TrimStatus = "completed"
	TrimStatusFailed     TrimStatus = "failed"
)

// TrimTask captures both the cut bounds and the workflow options of a trim.
// StartTime and EndTime are offsets into the source video, in seconds.
type TrimTask struct {
	ID           int64        `json:"id"`
	VideoID      int64        `json:"video_id"`
	Status       TrimStatus   `json:"status"`
	StartTime    int          `json:"start_time"`
	EndTime      int          `json:"end_time"`
	ExtractAudio bool         `json:"extract_audio"`
	KeepOriginal bool         `json:"keep_original"`
	AudioBitrate string       `json:"audio_bitrate"`
	TrimmedPath  string       `json:"trimmed_path"`
	AudioPath    string       `json:"audio_path,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	CompletedAt  sql.NullTime `json:"completed_at"`
}

type UploadStatus string

const (
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusCompleted UploadStatus = "completed"
	UploadStatusFailed    UploadStatus = "failed"
)

// UploadSession tracks a chunked upload. UploadedChunks is a persisted
// convenience counter; the authoritative set of present chunks is always
// derived from the scratch directory on disk.
type UploadSession struct {
	ID             string       `json:"id"`
	Filename       string       `json:"filename"`
	FileSize       int64        `json:"file_size"`
	ChunkSize      int64        `json:"chunk_size"`
	TotalChunks    int          `json:"total_chunks"`
	UploadedChunks int          `json:"uploaded_chunks"`
	Status         UploadStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
}

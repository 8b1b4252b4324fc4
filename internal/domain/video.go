package domain

import (
	"database/sql"
	"path/filepath"
	"strings"
	"time"
)

type SourceKind string

const (
	SourceKindRecorded SourceKind = "recorded"
	SourceKindUploaded SourceKind = "uploaded"
)

type FileKind string

const (
	FileKindVideo FileKind = "video"
	FileKindAudio FileKind = "audio"
)

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Video is the durable catalog row behind a finished artifact. FilePath is
// stored relative to the storage root so the catalog survives a move of the
// storage volume.
type Video struct {
	ID           int64        `json:"id"`
	TaskID       sql.NullInt64 `json:"task_id"`
	Title        string       `json:"title"`
	FilePath     string       `json:"file_path"`
	FileSize     int64        `json:"file_size"`
	Duration     int          `json:"duration"`
	Thumbnail    string       `json:"thumbnail,omitempty"`
	SourceKind   SourceKind   `json:"source_kind"`
	FileKind     FileKind     `json:"file_kind"`
	ReviewStatus ReviewStatus `json:"review_status"`
	ReviewedBy   string       `json:"reviewed_by,omitempty"`
	ReviewedAt   sql.NullTime `json:"reviewed_at"`
	CreatedAt    time.Time    `json:"created_at"`
}

// AbsolutePath resolves FilePath against the storage root. Older rows may
// still hold absolute paths; those are returned untouched.
func (v *Video) AbsolutePath(storageDir string) string {
	if filepath.IsAbs(v.FilePath) {
		return v.FilePath
	}
	return filepath.Join(storageDir, v.FilePath)
}

// ResetReview clears any prior moderation decision. A trimmed video is a
// different artifact from the one that was reviewed.
func (v *Video) ResetReview() {
	v.ReviewStatus = ReviewStatusPending
	v.ReviewedBy = ""
	v.ReviewedAt = sql.NullTime{}
}

// Stem returns the file name without directory or extension, used to derive
// output names for extracted audio.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

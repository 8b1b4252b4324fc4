package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const videoColumns = `id, task_id, title, file_path, file_size, duration, thumbnail, source_kind, file_kind, review_status, reviewed_by, reviewed_at, created_at`

func scanVideo(row interface{ Scan(...any) error }) (*domain.Video, error) {
	var v domain.Video
	err := row.Scan(
		&v.ID, &v.TaskID, &v.Title, &v.FilePath, &v.FileSize, &v.Duration,
		&v.Thumbnail, &v.SourceKind, &v.FileKind,
		&v.ReviewStatus, &v.ReviewedBy, &v.ReviewedAt, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (s *Store) CreateVideo(v *domain.Video) error {
	v.CreatedAt = time.Now()
	if v.ReviewStatus == "" {
		v.ReviewStatus = domain.ReviewStatusPending
	}
	res, err := s.db.Exec(
		`INSERT INTO videos (task_id, title, file_path, file_size, duration, thumbnail, source_kind, file_kind, review_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.TaskID, v.Title, v.FilePath, v.FileSize, v.Duration, v.Thumbnail,
		v.SourceKind, v.FileKind, v.ReviewStatus, v.CreatedAt,
	)
	if err != nil {
		return err
	}
	v.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetVideo(id int64) (*domain.Video, error) {
	row := s.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

func (s *Store) UpdateVideo(v *domain.Video) error {
	_, err := s.db.Exec(
		`UPDATE videos
		 SET title = ?, file_path = ?, file_size = ?, duration = ?, thumbnail = ?,
		     review_status = ?, reviewed_by = ?, reviewed_at = ?
		 WHERE id = ?`,
		v.Title, v.FilePath, v.FileSize, v.Duration, v.Thumbnail,
		v.ReviewStatus, v.ReviewedBy, v.ReviewedAt, v.ID,
	)
	return err
}

package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const extractTaskColumns = `id, video_id, status, format, bitrate, output_path, error_message, created_at, completed_at`

func scanExtractTask(row interface{ Scan(...any) error }) (*domain.ExtractTask, error) {
	var t domain.ExtractTask
	err := row.Scan(
		&t.ID, &t.VideoID, &t.Status, &t.Format, &t.Bitrate,
		&t.OutputPath, &t.ErrorMessage, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateExtractTask(t *domain.ExtractTask) error {
	t.CreatedAt = time.Now()
	res, err := s.db.Exec(
		`INSERT INTO extract_tasks (video_id, status, format, bitrate, output_path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.VideoID, t.Status, t.Format, t.Bitrate, t.OutputPath, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetExtractTask(id int64) (*domain.ExtractTask, error) {
	row := s.db.QueryRow(`SELECT `+extractTaskColumns+` FROM extract_tasks WHERE id = ?`, id)
	return scanExtractTask(row)
}

func (s *Store) ProcessingExtractTask(videoID int64) (*domain.ExtractTask, error) {
	row := s.db.QueryRow(
		`SELECT `+extractTaskColumns+` FROM extract_tasks WHERE video_id = ? AND status IN (?, ?) LIMIT 1`,
		videoID, domain.ExtractStatusPending, domain.ExtractStatusProcessing,
	)
	return scanExtractTask(row)
}

func (s *Store) CompletedExtractTask(videoID int64, format string) (*domain.ExtractTask, error) {
	row := s.db.QueryRow(
		`SELECT `+extractTaskColumns+` FROM extract_tasks
		 WHERE video_id = ? AND format = ? AND status = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		videoID, format, domain.ExtractStatusCompleted,
	)
	return scanExtractTask(row)
}

func (s *Store) LatestExtractTask(videoID int64) (*domain.ExtractTask, error) {
	row := s.db.QueryRow(
		`SELECT `+extractTaskColumns+` FROM extract_tasks WHERE video_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		videoID,
	)
	return scanExtractTask(row)
}

func (s *Store) UpdateExtractTask(t *domain.ExtractTask) error {
	_, err := s.db.Exec(
		`UPDATE extract_tasks SET status = ?, output_path = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		t.Status, t.OutputPath, t.ErrorMessage, t.CompletedAt, t.ID,
	)
	return err
}

func (s *Store) OrphanExtractTasks(message string) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE extract_tasks SET status = ?, error_message = ?, completed_at = ? WHERE status IN (?, ?)`,
		domain.ExtractStatusFailed, message, time.Now(),
		domain.ExtractStatusPending, domain.ExtractStatusProcessing,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

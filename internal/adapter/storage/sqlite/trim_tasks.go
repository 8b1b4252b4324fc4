package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const trimTaskColumns = `id, video_id, status, start_time, end_time, extract_audio, keep_original, audio_bitrate, trimmed_path, audio_path, error_message, created_at, completed_at`

func scanTrimTask(row interface{ Scan(...any) error }) (*domain.TrimTask, error) {
	var t domain.TrimTask
	err := row.Scan(
		&t.ID, &t.VideoID, &t.Status, &t.StartTime, &t.EndTime,
		&t.ExtractAudio, &t.KeepOriginal, &t.AudioBitrate,
		&t.TrimmedPath, &t.AudioPath, &t.ErrorMessage, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTrimTask(t *domain.TrimTask) error {
	t.CreatedAt = time.Now()
	res, err := s.db.Exec(
		`INSERT INTO trim_tasks (video_id, status, start_time, end_time, extract_audio, keep_original, audio_bitrate, trimmed_path, audio_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.VideoID, t.Status, t.StartTime, t.EndTime, t.ExtractAudio, t.KeepOriginal,
		t.AudioBitrate, t.TrimmedPath, t.AudioPath, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetTrimTask(id int64) (*domain.TrimTask, error) {
	row := s.db.QueryRow(`SELECT `+trimTaskColumns+` FROM trim_tasks WHERE id = ?`, id)
	return scanTrimTask(row)
}

func (s *Store) ProcessingTrimTask(videoID int64) (*domain.TrimTask, error) {
	row := s.db.QueryRow(
		`SELECT `+trimTaskColumns+` FROM trim_tasks WHERE video_id = ? AND status IN (?, ?) LIMIT 1`,
		videoID, domain.TrimStatusPending, domain.TrimStatusProcessing,
	)
	return scanTrimTask(row)
}

func (s *Store) LatestTrimTask(videoID int64) (*domain.TrimTask, error) {
	row := s.db.QueryRow(
		`SELECT `+trimTaskColumns+` FROM trim_tasks WHERE video_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		videoID,
	)
	return scanTrimTask(row)
}

func (s *Store) UpdateTrimTask(t *domain.TrimTask) error {
	_, err := s.db.Exec(
		`UPDATE trim_tasks SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		t.Status, t.ErrorMessage, t.CompletedAt, t.ID,
	)
	return err
}

func (s *Store) OrphanTrimTasks(message string) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE trim_tasks SET status = ?, error_message = ?, completed_at = ? WHERE status IN (?, ?)`,
		domain.TrimStatusFailed, message, time.Now(),
		domain.TrimStatusPending, domain.TrimStatusProcessing,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const recordTaskColumns = `id, source_id, status, file_path, file_size, duration, error_message, created_at, started_at, ended_at`

func scanRecordTask(row interface{ Scan(...any) error }) (*domain.RecordTask, error) {
	var t domain.RecordTask
	err := row.Scan(
		&t.ID, &t.SourceID, &t.Status, &t.FilePath, &t.FileSize,
		&t.Duration, &t.ErrorMessage, &t.CreatedAt, &t.StartedAt, &t.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateRecordTask(t *domain.RecordTask) error {
	t.CreatedAt = time.Now()
	res, err := s.db.Exec(
		`INSERT INTO record_tasks (source_id, status, file_path, created_at) VALUES (?, ?, ?, ?)`,
		t.SourceID, t.Status, t.FilePath, t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *Store) GetRecordTask(id int64) (*domain.RecordTask, error) {
	row := s.db.QueryRow(`SELECT `+recordTaskColumns+` FROM record_tasks WHERE id = ?`, id)
	return scanRecordTask(row)
}

func (s *Store) ActiveRecordTask(sourceID int64) (*domain.RecordTask, error) {
	row := s.db.QueryRow(
		`SELECT `+recordTaskColumns+` FROM record_tasks WHERE source_id = ? AND status IN (?, ?)`,
		sourceID, domain.RecordStatusPending, domain.RecordStatusRecording,
	)
	return scanRecordTask(row)
}

func (s *Store) LatestRecordTask(sourceID int64) (*domain.RecordTask, error) {
	row := s.db.QueryRow(
		`SELECT `+recordTaskColumns+` FROM record_tasks WHERE source_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		sourceID,
	)
	return scanRecordTask(row)
}

func (s *Store) UpdateRecordTask(t *domain.RecordTask) error {
	_, err := s.db.Exec(
		`UPDATE record_tasks
		 SET status = ?, file_path = ?, file_size = ?, duration = ?, error_message = ?, started_at = ?, ended_at = ?
		 WHERE id = ?`,
		t.Status, t.FilePath, t.FileSize, t.Duration, t.ErrorMessage, t.StartedAt, t.EndedAt, t.ID,
	)
	return err
}

func (s *Store) OrphanRecordTasks(message string) (int64, error) {
	res, err := s.db.Exec(
		`UPDATE record_tasks SET status = ?, error_message = ?, ended_at = ? WHERE status IN (?, ?)`,
		domain.RecordStatusInterrupted, message, time.Now(),
		domain.RecordStatusPending, domain.RecordStatusRecording,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

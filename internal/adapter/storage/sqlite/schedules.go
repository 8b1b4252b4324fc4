package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const scheduleColumns = `id, source_id, cron_expr, is_active, last_run_at, created_at`

func scanSchedule(row interface{ Scan(...any) error }) (*domain.Schedule, error) {
	var sc domain.Schedule
	err := row.Scan(&sc.ID, &sc.SourceID, &sc.CronExpr, &sc.IsActive, &sc.LastRunAt, &sc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &sc, nil
}

func (s *Store) ListActiveSchedules() ([]*domain.Schedule, error) {
	rows, err := s.db.Query(`SELECT ` + scheduleColumns + ` FROM schedules WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

func (s *Store) GetSchedule(id int64) (*domain.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleColumns+` FROM schedules WHERE id = ?`, id)
	return scanSchedule(row)
}

func (s *Store) TouchScheduleRun(id int64, ranAt time.Time) error {
	_, err := s.db.Exec(`UPDATE schedules SET last_run_at = ? WHERE id = ?`, ranAt, id)
	return err
}

func (s *Store) CreateSchedule(sc *domain.Schedule) error {
	sc.CreatedAt = time.Now()
	res, err := s.db.Exec(
		`INSERT INTO schedules (source_id, cron_expr, is_active, created_at) VALUES (?, ?, ?, ?)`,
		sc.SourceID, sc.CronExpr, sc.IsActive, sc.CreatedAt,
	)
	if err != nil {
		return err
	}
	sc.ID, err = res.LastInsertId()
	return err
}

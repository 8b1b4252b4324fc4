package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const sourceColumns = `id, name, protocol, url, retention_days, is_active, is_online, last_check_at, created_at, updated_at`

func scanSource(row interface{ Scan(...any) error }) (*domain.Source, error) {
	var s domain.Source
	err := row.Scan(
		&s.ID, &s.Name, &s.Protocol, &s.URL, &s.RetentionDays,
		&s.IsActive, &s.IsOnline, &s.LastCheckAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (s *Store) GetSource(id int64) (*domain.Source, error) {
	row := s.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

func (s *Store) ListActiveSources() ([]*domain.Source, error) {
	rows, err := s.db.Query(`SELECT ` + sourceColumns + ` FROM sources WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (s *Store) UpdateSourceStatus(id int64, online bool, checkedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sources SET is_online = ?, last_check_at = ?, updated_at = ? WHERE id = ?`,
		online, checkedAt, checkedAt, id,
	)
	return err
}

func (s *Store) CreateSource(src *domain.Source) error {
	now := time.Now()
	res, err := s.db.Exec(
		`INSERT INTO sources (name, protocol, url, retention_days, is_active, is_online, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		src.Name, src.Protocol, src.URL, src.RetentionDays, src.IsActive, now, now,
	)
	if err != nil {
		return err
	}
	src.ID, err = res.LastInsertId()
	src.CreatedAt = now
	src.UpdatedAt = now
	return err
}

package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/streamvault/streamvault/internal/domain"
)

const uploadColumns = `id, filename, file_size, chunk_size, total_chunks, uploaded_chunks, status, created_at`

func scanUploadSession(row interface{ Scan(...any) error }) (*domain.UploadSession, error) {
	var u domain.UploadSession
	err := row.Scan(
		&u.ID, &u.Filename, &u.FileSize, &u.ChunkSize,
		&u.TotalChunks, &u.UploadedChunks, &u.Status, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUploadSession(u *domain.UploadSession) error {
	u.CreatedAt = time.Now()
	_, err := s.db.Exec(
		`INSERT INTO upload_sessions (id, filename, file_size, chunk_size, total_chunks, uploaded_chunks, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Filename, u.FileSize, u.ChunkSize, u.TotalChunks, u.UploadedChunks, u.Status, u.CreatedAt,
	)
	return err
}

func (s *Store) GetUploadSession(id string) (*domain.UploadSession, error) {
	row := s.db.QueryRow(`SELECT `+uploadColumns+` FROM upload_sessions WHERE id = ?`, id)
	return scanUploadSession(row)
}

func (s *Store) UpdateUploadSession(u *domain.UploadSession) error {
	_, err := s.db.Exec(
		`UPDATE upload_sessions SET uploaded_chunks = ?, status = ? WHERE id = ?`,
		u.UploadedChunks, u.Status, u.ID,
	)
	return err
}

func (s *Store) DeleteUploadSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM upload_sessions WHERE id = ?`, id)
	return err
}

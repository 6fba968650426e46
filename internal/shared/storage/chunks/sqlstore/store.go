package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filevault/internal/shared/storage/chunks"
	"filevault/internal/shared/storage/db"
)

// Store implements chunks.Store on the object_chunks table.
type Store struct {
	DB      *sql.DB
	Dialect db.Dialect
}

// New wraps database for chunk storage.
func New(database *sql.DB, dialect db.Dialect) *Store {
	return &Store{DB: database, Dialect: dialect}
}

func (s *Store) Write(ctx context.Context, objectID string, seq int, data []byte) error {
	if data == nil {
		data = []byte{}
	}
	_, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`
INSERT INTO object_chunks (object_id, seq, data)
VALUES ($1, $2, $3)
ON CONFLICT (object_id, seq) DO UPDATE SET data = excluded.data
`), objectID, seq, data)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, objectID string, seq int) ([]byte, error) {
	var data []byte
	err := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
SELECT data FROM object_chunks WHERE object_id = $1 AND seq = $2
`), objectID, seq).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chunks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select chunk: %w", err)
	}
	return data, nil
}

func (s *Store) DeleteAll(ctx context.Context, objectID string) error {
	_, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM object_chunks WHERE object_id = $1`), objectID)
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

var _ chunks.Store = (*Store)(nil)

package objects

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"filevault/internal/shared/storage/db"
)

// SQLRepo implements Repo on the objects table. Queries are written for Postgres
// and rebound for SQLite. created_at is stored as unix milliseconds.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

const objectColumns = `id, owner, name, mime_type, size_bytes, chunk_size, chunk_count, created_at`

// Create inserts a new object row.
func (r *SQLRepo) Create(ctx context.Context, obj Object) error {
	const query = `
INSERT INTO objects (` + objectColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(
		ctx,
		r.Dialect.Rebind(query),
		obj.ID,
		obj.Owner,
		obj.Name,
		obj.MimeType,
		obj.SizeBytes,
		obj.ChunkSize,
		obj.ChunkCount,
		obj.CreatedAt.UnixMilli(),
	)
	return err
}

// GetByID fetches an object by ID.
func (r *SQLRepo) GetByID(ctx context.Context, id string) (Object, error) {
	const query = `
SELECT ` + objectColumns + `
FROM objects
WHERE id = $1`
	obj, err := scanObject(r.DB.QueryRowContext(ctx, r.Dialect.Rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return Object{}, ErrNotFound
	}
	return obj, err
}

// ListByOwner lists the owner's objects, oldest first.
func (r *SQLRepo) ListByOwner(ctx context.Context, owner string) ([]Object, error) {
	const query = `
SELECT ` + objectColumns + `
FROM objects
WHERE owner = $1
ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Object{}
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, rows.Err()
}

// Delete removes an object row.
func (r *SQLRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM objects WHERE id = $1`), id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (Object, error) {
	var obj Object
	var createdAt int64
	err := row.Scan(
		&obj.ID,
		&obj.Owner,
		&obj.Name,
		&obj.MimeType,
		&obj.SizeBytes,
		&obj.ChunkSize,
		&obj.ChunkCount,
		&createdAt,
	)
	if err != nil {
		return Object{}, err
	}
	obj.CreatedAt = time.UnixMilli(createdAt).UTC()
	return obj, nil
}

var _ Repo = (*SQLRepo)(nil)

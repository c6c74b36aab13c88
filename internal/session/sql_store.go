package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	getEntrySQL    = `SELECT value FROM session_entries WHERE name = $1`
	upsertEntrySQL = `INSERT INTO session_entries (name, value, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteEntrySQL = `DELETE FROM session_entries WHERE name = $1`
)

// SQLStore keeps session entries in the session_entries table. The queries
// use $n placeholders, which both lib/pq and modernc sqlite accept.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, getEntrySQL, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, upsertEntrySQL, key, value, s.now().UTC())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) (err error) {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, k := range keys {
		if _, err = tx.ExecContext(ctx, deleteEntrySQL, k); err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

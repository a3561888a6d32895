// Package cache remembers the diagnostics of earlier runs in SQLite, keyed
// by a hash of the checked source and the assignability policy, so an
// unchanged file is not checked twice.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/sigcheck/internal/config"
	"github.com/funvibe/sigcheck/internal/diagnostics"
)

type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path, creating its
// directory if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_hash TEXT NOT NULL,
			policy TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			diagnostics JSON NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_key ON runs(source_hash, policy);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the diagnostics stored for a source hash and policy. The
// boolean is false on a miss.
func (s *Store) Lookup(ctx context.Context, hash, policy string) ([]*diagnostics.DiagnosticError, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT diagnostics FROM runs WHERE source_hash = ? AND policy = ?`, hash, policy).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var errs []*diagnostics.DiagnosticError
	if err := json.Unmarshal(raw, &errs); err != nil {
		return nil, false, fmt.Errorf("decoding cached diagnostics: %w", err)
	}
	for _, e := range errs {
		e.Token = e.Position()
	}
	return errs, true, nil
}

// Save records the diagnostics of a run, replacing an earlier run with the
// same key, and returns the new run id.
func (s *Store) Save(ctx context.Context, hash, policy string, errs []*diagnostics.DiagnosticError) (string, error) {
	if errs == nil {
		errs = []*diagnostics.DiagnosticError{}
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_hash, policy, created_at, diagnostics)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_hash, policy) DO UPDATE SET
			id=excluded.id,
			created_at=excluded.created_at,
			diagnostics=excluded.diagnostics
	`, id, hash, policy, time.Now().Unix(), raw)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Count returns the number of stored runs.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

// Prune deletes runs older than cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HashSource derives the cache key of one file. The path is part of the
// key because diagnostics carry it, and the version so upgrades never
// reuse stale results.
func HashSource(path string, source []byte) string {
	h := sha256.New()
	h.Write([]byte(config.Version))
	h.Write([]byte("\x00"))
	h.Write([]byte(path))
	h.Write([]byte("\x00"))
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))
}

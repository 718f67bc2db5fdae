package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// Listing is one market the watcher has already announced.
type Listing struct {
	Contract  string
	Symbol    string
	FirstSeen time.Time
}

// SQLite persists announced listings in a local database guarded by a file
// lock, so concurrent watcher processes never double-write.
type SQLite struct {
	db   *sql.DB
	lock *flock.Flock
}

func OpenSQLite(path, lockPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	queries := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"CREATE TABLE IF NOT EXISTS listings (contract TEXT PRIMARY KEY, symbol TEXT NOT NULL, first_seen_at INTEGER NOT NULL);",
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init store schema: %w", err)
		}
	}
	return &SQLite{db: db, lock: flock.New(lockPath)}, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Seen reports whether the contract was already announced.
func (s *SQLite) Seen(ctx context.Context, contract string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM listings WHERE contract = ?", contract).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store read: %w", err)
	}
	return true, nil
}

// MarkSeen records a listing. Re-marking an existing contract keeps the
// original first-seen timestamp.
func (s *SQLite) MarkSeen(ctx context.Context, listing Listing) error {
	locked, err := s.lock.TryLockContext(ctx, 5*time.Second)
	if err != nil {
		return fmt.Errorf("lock store: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock store: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()

	seen := listing.FirstSeen
	if seen.IsZero() {
		seen = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO listings (contract, symbol, first_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT(contract) DO NOTHING
	`, listing.Contract, listing.Symbol, seen.Unix())
	if err != nil {
		return fmt.Errorf("store write: %w", err)
	}
	return nil
}

// Known returns all announced listings, oldest first.
func (s *SQLite) Known(ctx context.Context) ([]Listing, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT contract, symbol, first_seen_at FROM listings ORDER BY first_seen_at, contract")
	if err != nil {
		return nil, fmt.Errorf("store read: %w", err)
	}
	defer rows.Close()

	var out []Listing
	for rows.Next() {
		var listing Listing
		var seenUnix int64
		if err := rows.Scan(&listing.Contract, &listing.Symbol, &seenUnix); err != nil {
			return nil, fmt.Errorf("store scan: %w", err)
		}
		listing.FirstSeen = time.Unix(seenUnix, 0).UTC()
		out = append(out, listing)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	tmp := t.TempDir()
	s, err := OpenSQLite(filepath.Join(tmp, "listings.db"), filepath.Join(tmp, "listings.lock"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSeenAndMarkSeen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "con_new_token")
	if err != nil {
		t.Fatalf("Seen failed: %v", err)
	}
	if seen {
		t.Fatal("fresh store must not know any contract")
	}

	if err := s.MarkSeen(ctx, Listing{Contract: "con_new_token", Symbol: "NEW"}); err != nil {
		t.Fatalf("MarkSeen failed: %v", err)
	}
	seen, err = s.Seen(ctx, "con_new_token")
	if err != nil {
		t.Fatalf("Seen failed: %v", err)
	}
	if !seen {
		t.Fatal("marked contract must be reported as seen")
	}
}

func TestSQLiteMarkSeenKeepsFirstTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.MarkSeen(ctx, Listing{Contract: "con_new_token", Symbol: "NEW", FirstSeen: first}); err != nil {
		t.Fatalf("MarkSeen failed: %v", err)
	}
	if err := s.MarkSeen(ctx, Listing{Contract: "con_new_token", Symbol: "NEW", FirstSeen: first.Add(time.Hour)}); err != nil {
		t.Fatalf("second MarkSeen failed: %v", err)
	}

	known, err := s.Known(ctx)
	if err != nil {
		t.Fatalf("Known failed: %v", err)
	}
	if len(known) != 1 {
		t.Fatalf("expected one listing, got %+v", known)
	}
	if !known[0].FirstSeen.Equal(first) {
		t.Fatalf("first-seen timestamp must not move: %v", known[0].FirstSeen)
	}
}

func TestSQLiteKnownOrdersByFirstSeen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = s.MarkSeen(ctx, Listing{Contract: "con_b", Symbol: "B", FirstSeen: base.Add(time.Hour)})
	_ = s.MarkSeen(ctx, Listing{Contract: "con_a", Symbol: "A", FirstSeen: base})

	known, err := s.Known(ctx)
	if err != nil {
		t.Fatalf("Known failed: %v", err)
	}
	if len(known) != 2 || known[0].Contract != "con_a" || known[1].Contract != "con_b" {
		t.Fatalf("unexpected order: %+v", known)
	}
}

func TestSQLiteConcurrentMarkSeen(t *testing.T) {
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "listings.db")
	lockPath := filepath.Join(tmp, "listings.lock")

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s, err := OpenSQLite(dbPath, lockPath)
			if err != nil {
				errCh <- fmt.Errorf("worker %d open: %w", workerID, err)
				return
			}
			defer s.Close()
			for i := 0; i < 20; i++ {
				listing := Listing{Contract: fmt.Sprintf("con_token_%d", i), Symbol: "T"}
				if err := s.MarkSeen(context.Background(), listing); err != nil {
					errCh <- fmt.Errorf("worker %d mark: %w", workerID, err)
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}

	s, err := OpenSQLite(dbPath, lockPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	known, err := s.Known(context.Background())
	if err != nil {
		t.Fatalf("Known failed: %v", err)
	}
	if len(known) != 20 {
		t.Fatalf("expected 20 distinct listings, got %d", len(known))
	}
}

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func TestProcessedStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newProcessedStoreWithExec(mock)

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("messenger", "mid.new").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	ok, err := store.MarkProcessed(context.Background(), "messenger", "mid.new")
	if err != nil || !ok {
		t.Fatalf("expected mark processed success, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("messenger", "mid.new").WillReturnResult(pgxmock.NewResult("INSERT", 0))
	ok, err = store.MarkProcessed(context.Background(), "messenger", "mid.new")
	if err != nil || ok {
		t.Fatalf("expected duplicate, got %v %v", ok, err)
	}

	mock.ExpectExec("INSERT INTO processed_events").WithArgs("messenger", "mid.err").WillReturnError(errors.New("connection reset"))
	if _, err := store.MarkProcessed(context.Background(), "messenger", "mid.err"); err == nil {
		t.Fatal("expected error")
	}

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM processed_events").WithArgs(cutoff).WillReturnResult(pgxmock.NewResult("DELETE", 7))
	n, err := store.PruneBefore(context.Background(), cutoff)
	if err != nil || n != 7 {
		t.Fatalf("expected 7 pruned, got %d %v", n, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	first, _ := store.MarkProcessed(ctx, "messenger", "mid.1")
	second, _ := store.MarkProcessed(ctx, "messenger", "mid.1")
	other, _ := store.MarkProcessed(ctx, "other", "mid.1")
	if !first || second || !other {
		t.Fatalf("unexpected results first=%v second=%v other=%v", first, second, other)
	}

	now = now.Add(2 * time.Minute)
	again, _ := store.MarkProcessed(ctx, "messenger", "mid.1")
	if !again {
		t.Fatal("expected id to be forgotten after ttl")
	}
}

func TestMemoryStoreSweepsPeriodically(t *testing.T) {
	store := NewMemoryStore(10 * time.Second)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = store.MarkProcessed(ctx, "messenger", "mid.1")

	now = start.Add(30 * time.Second)
	_, _ = store.MarkProcessed(ctx, "messenger", "mid.2")
	if len(store.seen) != 2 {
		t.Fatalf("expected no sweep inside the interval, have %d ids", len(store.seen))
	}

	now = start.Add(61 * time.Second)
	_, _ = store.MarkProcessed(ctx, "messenger", "mid.3")
	if len(store.seen) != 1 {
		t.Fatalf("expected expired ids swept, have %d ids", len(store.seen))
	}
}

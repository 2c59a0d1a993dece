package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestStatsStoreIncrementsCounters(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewStatsStore(newClient(mr))

	if err := store.RecordOutcome(ctx, "u1", true, false, 6); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordOutcome(ctx, "u1", true, false, 7); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordOutcome(ctx, "u1", false, true, 5); err != nil {
		t.Fatalf("record: %v", err)
	}

	stats, err := store.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["battles"] != 3 || stats["wins"] != 2 || stats["ties"] != 1 || stats["losses"] != 0 {
		t.Fatalf("unexpected counters %+v", stats)
	}
	if stats["points"] != 18 {
		t.Fatalf("expected 18 points, got %d", stats["points"])
	}
	if stats["streak"] != 0 || stats["bestStreak"] != 2 {
		t.Fatalf("expected streak reset with best preserved, got %+v", stats)
	}
}

func TestStatsStoreLossPath(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewStatsStore(newClient(mr))

	_ = store.RecordOutcome(ctx, "u2", false, false, 2)
	stats, err := store.Stats(ctx, "u2")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["losses"] != 1 || stats["streak"] != 0 || stats["points"] != 2 {
		t.Fatalf("unexpected counters %+v", stats)
	}
}

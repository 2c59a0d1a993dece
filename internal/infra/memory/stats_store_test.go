package memory

import (
	"context"
	"testing"
)

func TestStatsStoreCountersAndStreak(t *testing.T) {
	ctx := context.Background()
	store := NewStatsStore()

	_ = store.RecordOutcome(ctx, "u1", true, false, 6)
	_ = store.RecordOutcome(ctx, "u1", true, false, 7)
	_ = store.RecordOutcome(ctx, "u1", false, true, 5)
	_ = store.RecordOutcome(ctx, "u1", true, false, 8)

	st := store.Stats("u1")
	if st.Battles != 4 || st.Wins != 3 || st.Ties != 1 || st.Losses != 0 {
		t.Fatalf("unexpected counters %+v", st)
	}
	if st.Points != 26 {
		t.Fatalf("expected 26 points, got %d", st.Points)
	}
	if st.Streak != 1 || st.BestStreak != 2 {
		t.Fatalf("expected streak reset by the tie, got %+v", st)
	}
}

func TestStatsStoreLossResetsStreak(t *testing.T) {
	ctx := context.Background()
	store := NewStatsStore()

	_ = store.RecordOutcome(ctx, "u2", true, false, 10)
	_ = store.RecordOutcome(ctx, "u2", false, false, 3)

	st := store.Stats("u2")
	if st.Losses != 1 || st.Streak != 0 || st.BestStreak != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

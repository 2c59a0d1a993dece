package engine

import (
	"testing"
	"time"

	"quiz-battle-service/internal/domain"
)

func TestMatchmakerPairsTwoOldest(t *testing.T) {
	m := newMatchmaker()
	now := time.Now()

	m.push("science", domain.Player{ConnID: "c1", UserID: "u1"}, now)
	if _, ok := m.popPair("science"); ok {
		t.Fatalf("expected no pair with a single waiter")
	}
	m.push("science", domain.Player{ConnID: "c2", UserID: "u2"}, now)
	m.push("science", domain.Player{ConnID: "c3", UserID: "u3"}, now)

	pair, ok := m.popPair("science")
	if !ok {
		t.Fatalf("expected a pair")
	}
	if pair[0].ConnID != "c1" || pair[1].ConnID != "c2" {
		t.Fatalf("expected the two oldest waiters, got %s and %s", pair[0].ConnID, pair[1].ConnID)
	}

	waiters := m.waiters("science")
	if len(waiters) != 1 || waiters[0].ConnID != "c3" {
		t.Fatalf("expected c3 to remain, got %+v", waiters)
	}
}

func TestMatchmakerRemove(t *testing.T) {
	m := newMatchmaker()
	now := time.Now()
	m.push("science", domain.Player{ConnID: "c1"}, now)
	m.push("science", domain.Player{ConnID: "c2"}, now)

	subject, ok := m.remove("c1")
	if !ok || subject != "science" {
		t.Fatalf("expected removal from science, got %q ok=%v", subject, ok)
	}
	if m.contains("c1") {
		t.Fatalf("expected c1 gone")
	}
	if _, ok := m.remove("c1"); ok {
		t.Fatalf("expected second removal to be a no-op")
	}
	if got := m.waiters("science"); len(got) != 1 || got[0].ConnID != "c2" {
		t.Fatalf("expected only c2 waiting, got %+v", got)
	}
}

func TestMatchmakerPushFrontJumpsQueue(t *testing.T) {
	m := newMatchmaker()
	now := time.Now()
	m.push("science", domain.Player{ConnID: "c1"}, now)
	m.pushFront("science", domain.Player{ConnID: "c0"}, now)

	pair, ok := m.popPair("science")
	if !ok || pair[0].ConnID != "c0" {
		t.Fatalf("expected the re-queued survivor first, got %+v ok=%v", pair, ok)
	}
}

package engine

import (
	"time"

	"quiz-battle-service/internal/domain"
)

// queueEntry is one waiting connection in a subject queue.
type queueEntry struct {
	player   domain.Player
	subject  string
	joinedAt time.Time
}

// matchmaker holds one FIFO per subject. It carries no lock of its own;
// every method must run under the engine mutex.
type matchmaker struct {
	queues map[string][]queueEntry
	byConn map[string]string // connID -> subject
}

func newMatchmaker() *matchmaker {
	return &matchmaker{
		queues: make(map[string][]queueEntry),
		byConn: make(map[string]string),
	}
}

func (m *matchmaker) contains(connID string) bool {
	_, ok := m.byConn[connID]
	return ok
}

func (m *matchmaker) push(subject string, p domain.Player, now time.Time) {
	m.queues[subject] = append(m.queues[subject], queueEntry{player: p, subject: subject, joinedAt: now})
	m.byConn[p.ConnID] = subject
}

// pushFront re-queues a survivor of a failed pairing ahead of newer waiters.
func (m *matchmaker) pushFront(subject string, p domain.Player, now time.Time) {
	m.queues[subject] = append([]queueEntry{{player: p, subject: subject, joinedAt: now}}, m.queues[subject]...)
	m.byConn[p.ConnID] = subject
}

// popPair removes and returns the two oldest waiters once the subject queue
// holds at least two entries.
func (m *matchmaker) popPair(subject string) ([2]domain.Player, bool) {
	q := m.queues[subject]
	if len(q) < 2 {
		return [2]domain.Player{}, false
	}
	pair := [2]domain.Player{q[0].player, q[1].player}
	m.queues[subject] = q[2:]
	if len(m.queues[subject]) == 0 {
		delete(m.queues, subject)
	}
	delete(m.byConn, pair[0].ConnID)
	delete(m.byConn, pair[1].ConnID)
	return pair, true
}

// remove drops a waiter if present and reports the subject it was queued for.
func (m *matchmaker) remove(connID string) (string, bool) {
	subject, ok := m.byConn[connID]
	if !ok {
		return "", false
	}
	delete(m.byConn, connID)
	q := m.queues[subject]
	for i := range q {
		if q[i].player.ConnID == connID {
			m.queues[subject] = append(q[:i:i], q[i+1:]...)
			break
		}
	}
	if len(m.queues[subject]) == 0 {
		delete(m.queues, subject)
	}
	return subject, true
}

// waiters snapshots a subject queue in FIFO order.
func (m *matchmaker) waiters(subject string) []domain.Player {
	q := m.queues[subject]
	out := make([]domain.Player, 0, len(q))
	for _, entry := range q {
		out = append(out, entry.player)
	}
	return out
}

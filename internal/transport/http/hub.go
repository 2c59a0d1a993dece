package http

import (
	"sync"

	"quiz-battle-service/internal/engine"
)

// Hub tracks every live connection's send channel. It implements
// engine.Notifier so the engine can push events without knowing about
// websockets.
type Hub struct {
	mu    sync.Mutex
	conns map[string]chan engine.Event
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]chan engine.Event)}
}

// Send never blocks: when a client's buffer is full the oldest event is
// dropped to make room.
func (h *Hub) Send(connID string, evt engine.Event) {
	h.mu.Lock()
	ch, ok := h.conns[connID]
	h.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- evt:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

func (h *Hub) register(connID string) chan engine.Event {
	ch := make(chan engine.Event, 32)
	h.mu.Lock()
	h.conns[connID] = ch
	h.mu.Unlock()
	return ch
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
}

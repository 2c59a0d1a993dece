package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-battle-service/internal/domain"
	"quiz-battle-service/internal/engine"
)

// Identifier resolves a handshake token to an account.
type Identifier interface {
	Identify(ctx context.Context, token string) (domain.Identity, error)
}

// WSHandler upgrades connections, authenticates them, and pumps inbound
// messages into the battle engine. Outbound traffic flows through the Hub.
type WSHandler struct {
	engine   *engine.Engine
	ident    Identifier
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(eng *engine.Engine, ident Identifier, hub *Hub) *WSHandler {
	return &WSHandler{
		engine: eng,
		ident:  ident,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinQueuePayload struct {
	Subject string `json:"subject"`
}

type answerPayload struct {
	ChosenIndex int `json:"chosenIndex"`
}

// ServeWS runs the connection lifecycle: identify, register with the hub,
// dispatch messages, and report the disconnect when the socket drops.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	identity, err := h.ident.Identify(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	send := h.hub.register(connID)

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case evt := <-send:
				if err := conn.WriteJSON(evt); err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			case <-done:
				return
			}
		}
	}()

	player := domain.Player{
		ConnID:      connID,
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Avatar:      identity.Avatar,
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "join_queue":
			var payload joinQueuePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.Send(connID, errorEvent("invalid join payload"))
				continue
			}
			if err := h.engine.JoinQueue(player, payload.Subject); err != nil {
				h.hub.Send(connID, errorEvent(err.Error()))
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.hub.Send(connID, errorEvent("invalid answer payload"))
				continue
			}
			if err := h.engine.SubmitAnswer(connID, payload.ChosenIndex); err != nil {
				h.hub.Send(connID, errorEvent(err.Error()))
			}
		case "leave":
			h.engine.Leave(connID)
		default:
			h.hub.Send(connID, errorEvent("unsupported message type"))
		}
	}

	h.engine.Disconnect(connID)
	h.hub.unregister(connID)

	// The send channel is never closed; a racing engine goroutine may still
	// hold a reference, and a push into an unregistered buffer is harmless.
	close(done)
	<-writerDone
}

func errorEvent(msg string) engine.Event {
	return engine.Event{Type: engine.EventError, Payload: engine.ErrorPayload{Message: msg}}
}

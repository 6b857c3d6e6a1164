// Package websocket pushes live patient-flow updates to dashboard clients.
// Each client registers a tracking filter and only receives tracking updates
// whose patient state matches it.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"clinicflow/internal/converter"
	"clinicflow/internal/delivery/dto"
	"clinicflow/internal/domain/entity"

	"github.com/sirupsen/logrus"
)

// Message is the frame sent to dashboard clients
type Message struct {
	Type       string                    `json:"type"`
	EntityID   string                    `json:"entity_id"`
	OccurredAt time.Time                 `json:"occurred_at"`
	Data       map[string]interface{}    `json:"data,omitempty"`
	Patient    *dto.PatientStateResponse `json:"patient,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single dashboard connection.
type Client struct {
	ID     string
	Filter entity.TrackingFilter
	Send   chan []byte
	conn   Conn
}

// Hub tracks connected clients. All operations are thread-safe via sync.RWMutex.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	log     *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// Publish implements service.EventPublisher. Tracking updates go to clients
// whose filter matches the new state; other events go to every client.
func (h *Hub) Publish(_ context.Context, event entity.FlowEvent) error {
	msg := Message{
		Type:       event.Type,
		EntityID:   event.EntityID,
		OccurredAt: event.OccurredAt,
		Data:       event.Data,
	}
	if event.State != nil {
		state := converter.PatientStateToResponse(*event.State)
		msg.Patient = &state
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if event.State != nil && !client.Filter.Matches(*event.State) {
			continue
		}
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking the writer of the change.
			h.log.WithField("client_id", client.ID).Warn("Dropping live update for slow client")
		}
	}
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

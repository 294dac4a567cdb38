package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one activity-feed connection, scoped to a bar.
type Client struct {
	Conn  Conn
	BarID uuid.UUID
}

// Message is delivered to every client of BarID.
type Message struct {
	BarID   uuid.UUID
	Payload []byte
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message
	mutex      sync.Mutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.Clients {
				client.Conn.Close()
				delete(h.Clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			h.logger.Debug("ws client connected", zap.String("bar_id", client.BarID.String()))

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				client.Conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for client := range h.Clients {
				if client.BarID != message.BarID {
					continue
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, message.Payload); err != nil {
					h.logger.Warn("ws write failed, dropping client", zap.Error(err))
					client.Conn.Close()
					delete(h.Clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// ClientCount is the number of connected clients across all bars
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

// Publish marshals an activity event and hands it to the run loop without
// blocking the caller. A nil hub drops the event.
func (h *Hub) Publish(barID uuid.UUID, eventType, action string, data map[string]interface{}, message string) {
	if h == nil {
		return
	}
	payload := map[string]interface{}{
		"type":    eventType,
		"action":  action,
		"bar_id":  barID.String(),
		"data":    data,
		"message": message,
		"at":      time.Now(),
	}
	msg, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("ws payload marshal failed", zap.Error(err))
		return
	}
	go func() {
		h.Broadcast <- Message{BarID: barID, Payload: msg}
	}()
}

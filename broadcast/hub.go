package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"impostord/models"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 10 * time.Second
	sendBuffer = 64
)

// Hub maps connection ids to live sockets. Each client gets a buffered
// outbound mailbox drained by its own write pump, so the game core only
// ever enqueues and never blocks on a slow socket.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*models.Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*models.Client),
		logger:  logger,
	}
}

// Register binds a socket to a connection id and starts its write pump.
// A reconnect replaces the previous socket, which is closed.
func (h *Hub) Register(client *models.Client) {
	client.Send = make(chan []byte, sendBuffer)

	h.mu.Lock()
	if old, ok := h.clients[client.ConnID]; ok {
		close(old.Send)
	}
	h.clients[client.ConnID] = client
	h.mu.Unlock()

	go h.writePump(client)
	h.logger.Info("client registered",
		zap.String("connID", client.ConnID), zap.String("roomID", client.RoomID))
}

// Unregister removes the binding, but only if conn is still the bound
// socket; a reconnect that already replaced it is left alone. Reports
// whether conn was the bound socket, so callers tearing down a replaced
// socket know the connection identity lives on elsewhere.
func (h *Hub) Unregister(connID string, conn *websocket.Conn) bool {
	h.mu.Lock()
	client, ok := h.clients[connID]
	if ok && client.Conn == conn {
		delete(h.clients, connID)
		close(client.Send)
	} else {
		ok = false
	}
	h.mu.Unlock()
	if ok {
		h.logger.Info("client unregistered", zap.String("connID", connID))
	}
	return ok
}

// Deliver marshals the payload once and enqueues it for each recipient.
// Full mailboxes drop the message rather than blocking the caller.
func (h *Hub) Deliver(to []string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal outbound event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, connID := range to {
		client, ok := h.clients[connID]
		if !ok {
			continue
		}
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("outbound mailbox full, dropping event",
				zap.String("connID", connID))
		}
	}
}

func (h *Hub) writePump(client *models.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Info("write failed, dropping socket",
					zap.String("connID", client.ConnID), zap.Error(err))
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

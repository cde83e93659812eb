package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer and the access token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSEvent is the frame pushed to clients.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Client struct {
	ID     uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
}

// WebSocketHub tracks live sessions per user and pushes domain events to
// them. It satisfies domain.EventPublisher, so a connection request reaches
// the recipient's open sessions as well as the event bus.
type WebSocketHub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	// userID -> active clients, one per device
	userClients map[uuid.UUID]map[*Client]struct{}
	mu          sync.RWMutex
	logger      *zap.Logger
}

func NewWebSocketHub(logger *zap.Logger) *WebSocketHub {
	return &WebSocketHub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		userClients: make(map[uuid.UUID]map[*Client]struct{}),
		logger:      logger,
	}
}

// Run serves register/unregister until ctx is done, then closes every client.
func (h *WebSocketHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, clients := range h.userClients {
				for c := range clients {
					close(c.Send)
				}
				delete(h.userClients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.userClients[client.UserID]; !ok {
				h.userClients[client.UserID] = make(map[*Client]struct{})
			}
			h.userClients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", zap.String("user_id", client.UserID.String()))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.userClients[client.UserID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.userClients, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("user_id", client.UserID.String()))
		}
	}
}

// Register adds client to the hub. It reports false once the hub has stopped.
func (h *WebSocketHub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *WebSocketHub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues message for every session of userID. Slow clients drop frames.
func (h *WebSocketHub) SendToUser(userID uuid.UUID, message interface{}) int {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal message", zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.userClients[userID] {
		select {
		case client.Send <- jsonMsg:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *WebSocketHub) PublishConnectionRequest(ctx context.Context, event *domain.ConnectionRequestEvent) error {
	h.SendToUser(event.ToUserID, WSEvent{
		Type:    event.Type,
		Payload: event,
	})
	return nil
}

// Connected reports how many sessions userID has open.
func (h *WebSocketHub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}

// ReadPump drains client frames; it only exists to notice disconnects and pongs.
func (c *Client) ReadPump(hub *WebSocketHub) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				hub.logger.Debug("websocket closed", zap.String("user_id", c.UserID.String()), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

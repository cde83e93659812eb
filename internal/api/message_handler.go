package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/domain"
	"github.com/pingup/backend/internal/middleware"
	"github.com/pingup/backend/pkg/response"
)

type MessageHandler struct {
	inbox        *domain.InboxService
	hub          *WebSocketHub
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewMessageHandler(inbox *domain.InboxService, hub *WebSocketHub, pollInterval time.Duration, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		inbox:        inbox,
		hub:          hub,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// RecentMessages handles GET /messages/recent: one latest message per sender,
// newest conversation first.
func (h *MessageHandler) RecentMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	messages, err := h.inbox.RecentMessages(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "get recent messages")
		return
	}

	if h.pollInterval > 0 {
		w.Header().Set("X-Poll-Interval", strconv.Itoa(int(h.pollInterval.Seconds())))
	}
	response.OK(w, messages)
}

// HandleWebSocket upgrades the request and streams events for the caller
func (h *MessageHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.New(),
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		UserID: userID,
	}

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.hub)
}

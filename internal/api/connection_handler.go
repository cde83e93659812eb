package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/domain"
	"github.com/pingup/backend/internal/middleware"
	"github.com/pingup/backend/pkg/response"
	"github.com/pingup/backend/pkg/validator"
)

type ConnectionHandler struct {
	connService *domain.ConnectionService
	logger      *zap.Logger
}

func NewConnectionHandler(connService *domain.ConnectionService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connService: connService,
		logger:      logger,
	}
}

// SendRequest handles POST /connections/request
func (h *ConnectionHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req targetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var errs validator.ValidationErrors
	targetID := errs.UserID("target_user_id", req.TargetUserID)
	if errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	conn, err := h.connService.RequestConnection(r.Context(), userID, targetID)
	if err != nil {
		writeDomainError(w, h.logger, err, "send connection request")
		return
	}

	response.Created(w, conn)
}

// AcceptRequest handles POST /connections/accept
func (h *ConnectionHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	var req struct {
		RequesterID string `json:"requester_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var errs validator.ValidationErrors
	requesterID := errs.UserID("requester_id", req.RequesterID)
	if errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	conn, err := h.connService.AcceptConnection(r.Context(), userID, requesterID)
	if err != nil {
		writeDomainError(w, h.logger, err, "accept connection request")
		return
	}

	response.OK(w, conn)
}

// GetRelationships handles GET /connections
func (h *ConnectionHandler) GetRelationships(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	view, err := h.connService.GetRelationships(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "get connections")
		return
	}

	response.OK(w, view)
}

// GetUserRelationships handles GET /users/{userId}/relationships. Pending
// requests stay private to their recipient.
func (h *ConnectionHandler) GetUserRelationships(w http.ResponseWriter, r *http.Request) {
	var errs validator.ValidationErrors
	userID := errs.UserID("userId", chi.URLParam(r, "userId"))
	if errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	view, err := h.connService.GetRelationships(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "get relationships")
		return
	}

	if caller, ok := middleware.GetUserID(r.Context()); ok && caller == userID {
		response.OK(w, view)
		return
	}
	response.OK(w, view.Relationships)
}

// GetRequests handles GET /connections/requests
func (h *ConnectionHandler) GetRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "not authenticated")
		return
	}

	requests, err := h.connService.ListPendingIncoming(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, err, "get requests")
		return
	}
	if requests == nil {
		requests = []*domain.ConnectionRequest{}
	}

	response.OK(w, requests)
}

package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pingup/backend/internal/domain"
	"github.com/pingup/backend/internal/middleware"
	"github.com/pingup/backend/pkg/response"
	"github.com/pingup/backend/pkg/validator"
)

type FollowHandler struct {
	follows *domain.FollowService
	logger  *zap.Logger
}

func NewFollowHandler(follows *domain.FollowService, logger *zap.Logger) *FollowHandler {
	return &FollowHandler{
		follows: follows,
		logger:  logger,
	}
}

type targetRequest struct {
	TargetUserID string `json:"target_user_id"`
}

// Follow handles POST /users/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
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

	if err := h.follows.Follow(r.Context(), userID, targetID); err != nil {
		writeDomainError(w, h.logger, err, "follow user")
		return
	}

	response.OK(w, ackResponse{Message: "Now you are following this user"})
}

// Unfollow handles POST /users/unfollow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
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

	if err := h.follows.Unfollow(r.Context(), userID, targetID); err != nil {
		writeDomainError(w, h.logger, err, "unfollow user")
		return
	}

	response.OK(w, ackResponse{Message: "You are no longer following this user"})
}

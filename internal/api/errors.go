package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/pingup/backend/internal/domain"
	"github.com/pingup/backend/pkg/response"
	"github.com/pingup/backend/pkg/validator"
)

// writeDomainError maps a service error onto the response envelope. Caller
// errors are reported as-is; anything else is logged and hidden.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		response.BadRequest(w, err.Error())
	case domain.KindNotFound:
		response.NotFound(w, err.Error())
	case domain.KindConflict:
		response.Conflict(w, err.Error())
	case domain.KindRateLimit:
		response.TooManyRequests(w, err.Error())
	default:
		logger.Error("failed to "+action, zap.Error(err))
		response.InternalError(w, "failed to "+action)
	}
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response.ErrorWithDetails(w, http.StatusBadRequest, "VALIDATION_FAILED", errs.Error(), errs)
}

// decodeJSON reads a JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(dst); err != nil {
		response.BadRequest(w, "invalid request")
		return false
	}
	return true
}

type ackResponse struct {
	Message string `json:"message"`
}

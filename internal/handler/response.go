package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"idol-platform/internal/service"
	"idol-platform/internal/util"

	"go.uber.org/zap"
)

// Response is the standard API envelope for CRUD endpoints. Auth endpoints
// return their own flat token shapes; errors always use this envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func successResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Data:    data,
		Message: message,
	}
}

func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		util.Error("Failed to encode JSON response", util.ErrorField(err))
	}
}

// respondWithError maps the error to a client-safe body. Unexpected errors
// are logged in full and reported generically; internals never leak.
func respondWithError(w http.ResponseWriter, logger *zap.Logger, err error) {
	statusCode := statusForError(err)

	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		logger.Error("Unexpected handler error", zap.Error(err))
		message = "internal server error"
	} else {
		logger.Warn("HTTP error response",
			zap.Int("status_code", statusCode),
			zap.String("error", message))
	}

	respondWithJSON(w, statusCode, Response{Success: false, Error: message})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTwoFactorNotEnabled):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccountSuspended),
		errors.Is(err, service.ErrTwoFactorRequired),
		errors.Is(err, service.ErrInvalidTwoFactorCode),
		errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateAccount),
		errors.Is(err, service.ErrDuplicateHandle):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

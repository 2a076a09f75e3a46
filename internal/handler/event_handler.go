package handler

import (
	"net/http"
	"strconv"

	"idol-platform/internal/audit"

	"go.uber.org/zap"
)

// EventHandler exposes search over recorded auth events.
type EventHandler struct {
	recorder *audit.Recorder
	logger   *zap.Logger
}

func NewEventHandler(recorder *audit.Recorder, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// SearchEvents handles GET /api/events?userId=&action=&limit=.
func (h *EventHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	action := r.URL.Query().Get("action")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	events, err := h.recorder.Search(r.Context(), userID, action, limit)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, successResponse(events, ""))
}

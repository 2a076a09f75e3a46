package handler

import (
	"encoding/json"
	"net/http"

	"idol-platform/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdolHandler exposes the idol CRUD surface.
type IdolHandler struct {
	idolService *service.IdolService
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewIdolHandler(idolService *service.IdolService, validate *validator.Validate, logger *zap.Logger) *IdolHandler {
	return &IdolHandler{
		idolService: idolService,
		validate:    validate,
		logger:      logger,
	}
}

// ListIdols handles GET /api/idols.
func (h *IdolHandler) ListIdols(w http.ResponseWriter, r *http.Request) {
	idols, err := h.idolService.ListIdols(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(idols, ""))
}

// CreateIdol handles POST /api/idols.
func (h *IdolHandler) CreateIdol(w http.ResponseWriter, r *http.Request) {
	var req service.IdolCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "validation failed: " + err.Error()})
		return
	}

	idol, err := h.idolService.CreateIdol(r.Context(), &req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(idol, "Idol created successfully"))
}

// DeleteIdol handles DELETE /api/idols?id=<uuid>.
func (h *IdolHandler) DeleteIdol(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("id")
	idolID, err := uuid.Parse(rawID)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid idol id"})
		return
	}

	if err := h.idolService.DeleteIdol(r.Context(), idolID); err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(nil, "Idol deleted successfully"))
}

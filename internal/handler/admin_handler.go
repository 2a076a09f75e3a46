package handler

import (
	"encoding/json"
	"net/http"

	"idol-platform/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AdminHandler exposes the admin CRUD surface.
type AdminHandler struct {
	adminService *service.AdminService
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, validate *validator.Validate, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validate:     validate,
		logger:       logger,
	}
}

// ListAdmins handles GET /api/admins.
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.adminService.ListAdmins(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(admins, ""))
}

// CreateAdmin handles POST /api/admins.
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req service.AdminCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "validation failed: " + err.Error()})
		return
	}

	admin, err := h.adminService.CreateAdmin(r.Context(), &req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(admin, "Admin created successfully"))
}

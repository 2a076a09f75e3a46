package handler

import (
	"encoding/json"
	"net/http"

	"idol-platform/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// UserHandler exposes the user CRUD surface.
type UserHandler struct {
	userService *service.UserService
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, validate *validator.Validate, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validate,
		logger:      logger,
	}
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(users, ""))
}

// CreateUser handles POST /api/users.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "validation failed: " + err.Error()})
		return
	}

	user, err := h.userService.CreateUser(r.Context(), &req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, successResponse(user, "User created successfully"))
}

// UpdateUser handles PATCH /api/users.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "validation failed: " + err.Error()})
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), &req)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, successResponse(user, "User updated successfully"))
}

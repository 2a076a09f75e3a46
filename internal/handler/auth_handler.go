package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"idol-platform/internal/auth"
	"idol-platform/internal/model"
	"idol-platform/internal/service"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// tokenResponse is the wire shape for every auth endpoint. TwoFactorSecret
// and ProvisioningURI appear only in the registration response for accounts
// that enrolled; Error is set only on the 2FA-challenge response.
type tokenResponse struct {
	Token           string            `json:"token"`
	User            *model.PublicUser `json:"user"`
	TwoFactorSecret string            `json:"twoFactorSecret,omitempty"`
	ProvisioningURI string            `json:"provisioningUri,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// AuthHandler exposes register, login and the two-factor verify endpoint.
type AuthHandler struct {
	authService *service.AuthService
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, validate *validator.Validate, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validate,
		logger:      logger,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), &req, r.RemoteAddr)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, tokenResponse{
		Token:           result.Token,
		User:            result.User,
		TwoFactorSecret: result.TwoFactorSecret,
		ProvisioningURI: result.ProvisioningURI,
	})
}

// Login handles POST /api/auth/login. An enrolled account logging in without
// a code gets 403 with an interim token in the body; that token only opens
// the verify endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req, r.RemoteAddr)
	if err != nil {
		if errors.Is(err, service.ErrTwoFactorRequired) && result != nil {
			respondWithJSON(w, http.StatusForbidden, tokenResponse{
				Token: result.Token,
				User:  result.User,
				Error: err.Error(),
			})
			return
		}
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tokenResponse{
		Token: result.Token,
		User:  result.User,
	})
}

type verifyTwoFactorRequest struct {
	Code string `json:"twoFactorCode" validate:"required,len=6,numeric"`
}

// VerifyTwoFactor handles POST /api/auth/verify-2fa. The caller is already
// past the request gate, so the identity comes from the request context.
func (h *AuthHandler) VerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, errors.New("missing request identity"))
		return
	}

	var req verifyTwoFactorRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authService.VerifyTwoFactor(r.Context(), identity.UserID, req.Code, r.RemoteAddr)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tokenResponse{
		Token: result.Token,
		User:  result.User,
	})
}

func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, Response{Success: false, Error: "validation failed: " + err.Error()})
		return false
	}
	return true
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parlor/parlor/internal/handler/dto"
	"github.com/parlor/parlor/internal/service"
)

// Error codes on the auth wire surface.
const (
	ErrCodeUserAlreadyExists  = "USER_ALREADY_EXIST"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// AuthHandler handles registration and login requests.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []dto.Issue{{
			Path:    []string{},
			Code:    dto.CodeInvalidType,
			Message: "Invalid JSON body",
		}})
		return
	}
	if issues := req.Validate(); len(issues) > 0 {
		writeValidationError(w, issues)
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: ErrCodeUserAlreadyExists})
			return
		}
		h.logger.Error("register failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: ErrCodeInternal})
		return
	}

	h.logger.Info("user_registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, dto.SuccessResponse{Success: true})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, []dto.Issue{{
			Path:    []string{},
			Code:    dto.CodeInvalidType,
			Message: "Invalid JSON body",
		}})
		return
	}
	if issues := req.Validate(); len(issues) > 0 {
		writeValidationError(w, issues)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Unknown email and wrong password share this body.
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: ErrCodeInvalidCredentials})
			return
		}
		h.logger.Error("login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: ErrCodeInternal})
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{Token: token})
}

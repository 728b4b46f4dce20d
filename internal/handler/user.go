package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/service"
)

// UserHandler handles authentication and profile endpoints.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Username and password are required")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_logged_in",
		"user_id", result.User.ID,
		"role", result.User.Role,
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ExpiresIn: int64(result.ExpiresIn.Seconds()),
		User:      dto.ToUserResponse(result.User),
	})
}

// Logout handles POST /api/v1/auth/logout.
// The presented token is revoked for the remainder of its lifetime.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "No token to revoke")
		return
	}

	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Profile handles GET /api/v1/users/me.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	user, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// UpdateProfile handles PATCH /api/v1/users/me.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid profile fields")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	user, err := h.svc.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Village: req.Village,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// ChangePassword handles POST /api/v1/users/me/password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "New password must be at least 8 characters")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("password_changed", "user_id", userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

// Preferences handles GET /api/v1/users/me/preferences.
func (h *UserHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	prefs, err := h.svc.GetPreferences(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// UpdatePreferences handles PUT /api/v1/users/me/preferences.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req dto.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Preferences object is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	prefs, err := h.svc.UpdatePreferences(r.Context(), userID, req.Preferences)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, service.ErrUserInactive):
		h.writeError(w, http.StatusForbidden, "USER_INACTIVE", "Account is deactivated")
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrWeakPassword):
		h.writeError(w, http.StatusUnprocessableEntity, "WEAK_PASSWORD", "Password does not meet requirements")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *UserHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return r.Header.Get("X-Auth-Token")
}

package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/config"
	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/report"
	"github.com/ashaconnect/ashaconnect/internal/service"
	syncworker "github.com/ashaconnect/ashaconnect/internal/sync"
	"github.com/ashaconnect/ashaconnect/internal/telephony"
	"github.com/ashaconnect/ashaconnect/internal/voice"
)

// maxLogLines caps how much of the log file one request can read.
const maxLogLines = 1000

// ModelAvailability reports whether the assessment model is reachable.
type ModelAvailability interface {
	Available() bool
}

// AdminHandler provides admin-only endpoints for operations and oversight.
type AdminHandler struct {
	users    *service.UserService
	worker   *syncworker.Worker
	store    *localstore.Store
	registry *telephony.Registry
	reporter *report.Reporter
	model    ModelAvailability
	cfg      *config.Config
	logger   *slog.Logger
	started  time.Time
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	users *service.UserService,
	worker *syncworker.Worker,
	store *localstore.Store,
	registry *telephony.Registry,
	reporter *report.Reporter,
	model ModelAvailability,
	cfg *config.Config,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		users:    users,
		worker:   worker,
		store:    store,
		registry: registry,
		reporter: reporter,
		model:    model,
		cfg:      cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

// CreateUser handles POST /api/v1/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid user fields")
		return
	}

	user, err := h.users.CreateUser(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     model.Role(req.Role),
		Phone:    req.Phone,
		Village:  req.Village,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_created",
		"user_id", user.ID,
		"role", user.Role,
		"created_by", auth.UserIDFromContext(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user))
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	out := make([]*dto.UserResponse, len(users))
	for i, u := range users {
		out[i] = dto.ToUserResponse(u)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": out,
		"count": len(out),
	})
}

// SetUserActive handles PATCH /api/v1/admin/users/{id}/active.
func (h *AdminHandler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	var req dto.SetUserActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Active flag is required")
		return
	}

	actorID := auth.UserIDFromContext(r.Context())
	user, err := h.users.SetUserActive(r.Context(), actorID, id, *req.Active)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_active_changed",
		"user_id", user.ID,
		"active", user.Active,
		"changed_by", actorID,
	)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	actorID := auth.UserIDFromContext(r.Context())
	if err := h.users.DeleteUser(r.Context(), actorID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("user_deleted", "user_id", id, "deleted_by", actorID)

	w.WriteHeader(http.StatusNoContent)
}

// SyncStatus handles GET /api/v1/admin/sync/status.
func (h *AdminHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.worker.Status(r.Context())
	if err != nil {
		h.logger.Error("sync_status_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSyncStatusResponse(status))
}

// TriggerSync handles POST /api/v1/admin/sync/trigger.
func (h *AdminHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	h.worker.TriggerNow()

	h.logger.Info("sync_triggered", "triggered_by", auth.UserIDFromContext(r.Context()))

	writeJSON(w, http.StatusAccepted, dto.SyncTriggerResponse{Triggered: true})
}

// RetrySync handles POST /api/v1/admin/sync/retry.
func (h *AdminHandler) RetrySync(w http.ResponseWriter, r *http.Request) {
	requeued, err := h.worker.RetryFailed(r.Context())
	if err != nil {
		h.logger.Error("sync_retry_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	h.logger.Info("sync_retry",
		"requeued", requeued,
		"triggered_by", auth.UserIDFromContext(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.SyncRetryResponse{Requeued: requeued})
}

// SystemInfo handles GET /api/v1/admin/system.
func (h *AdminHandler) SystemInfo(w http.ResponseWriter, r *http.Request) {
	info := dto.SystemInfoResponse{
		Name:               h.cfg.AppName,
		Version:            h.cfg.AppVersion,
		Environment:        h.cfg.AppEnv,
		Uptime:             time.Since(h.started).Round(time.Second).String(),
		GoVersion:          runtime.Version(),
		NumGoroutines:      runtime.NumGoroutine(),
		SupportedLanguages: len(voice.Languages()),
		ActiveCalls:        len(h.registry.ActiveCalls()),
	}

	if h.model != nil {
		info.ModelAvailable = h.model.Available()
	}

	if size, err := h.store.FileSizeBytes(); err == nil {
		info.LocalStoreBytes = size
	}

	if status, err := h.worker.Status(r.Context()); err == nil {
		info.SyncPending = status.Pending
		info.SyncFailed = status.Failed
		info.LastSyncedAt = status.LastSyncedAt
	}

	writeJSON(w, http.StatusOK, info)
}

// Logs handles GET /api/v1/admin/logs?lines=N.
// Returns the tail of the application log file.
func (h *AdminHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if h.cfg.LogFile == "" {
		h.writeError(w, http.StatusNotFound, "LOGS_NOT_CONFIGURED", "File logging is not enabled")
		return
	}

	lines := 100
	if l := r.URL.Query().Get("lines"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLogLines {
			lines = parsed
		}
	}

	tail, err := tailFile(h.cfg.LogFile, lines)
	if err != nil {
		h.logger.Error("log_read_failed", "error", err, "file", h.cfg.LogFile)
		h.writeError(w, http.StatusInternalServerError, "LOG_READ_FAILED", "Could not read log file")
		return
	}

	writeJSON(w, http.StatusOK, dto.LogsResponse{
		File:  filepath.Base(h.cfg.LogFile),
		Lines: tail,
	})
}

// Resources handles GET /api/v1/admin/resources?category=.
// Lists offline assets tracked on the device (recordings, protocol
// documents) with their sizes and access counts.
func (h *AdminHandler) Resources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.store.ListResources(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("resource_list_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resources": resources,
		"count":     len(resources),
	})
}

// UsageReport handles GET /api/v1/admin/reports/usage?from=&to=.
// The window defaults to the last 30 days.
func (h *AdminHandler) UsageReport(w http.ResponseWriter, r *http.Request) {
	if h.reporter == nil {
		h.writeError(w, http.StatusServiceUnavailable, "REPORTS_UNAVAILABLE", "Reporting database is not configured")
		return
	}

	from, to, ok := h.reportWindow(w, r)
	if !ok {
		return
	}

	usage, err := h.reporter.Usage(r.Context(), from, to)
	if err != nil {
		h.logger.Error("usage_report_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, usage)
}

// ReferralReport handles GET /api/v1/admin/reports/referrals?symptoms=&from=&to=.
// Counts referrals per reported symptom over the window, for outbreak
// spotting. Symptoms are comma separated; the window defaults to the
// last 30 days.
func (h *AdminHandler) ReferralReport(w http.ResponseWriter, r *http.Request) {
	var symptoms []string
	for _, s := range strings.Split(r.URL.Query().Get("symptoms"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, strings.ToLower(s))
		}
	}
	if len(symptoms) == 0 {
		h.writeError(w, http.StatusBadRequest, "MISSING_SYMPTOMS", "At least one symptom is required")
		return
	}

	if h.reporter == nil {
		h.writeError(w, http.StatusServiceUnavailable, "REPORTS_UNAVAILABLE", "Reporting database is not configured")
		return
	}

	from, to, ok := h.reportWindow(w, r)
	if !ok {
		return
	}

	counts, err := h.reporter.ReferralsBySymptom(r.Context(), from, to, symptoms)
	if err != nil {
		h.logger.Error("referral_report_failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":      from,
		"to":        to,
		"referrals": counts,
	})
}

// reportWindow parses the from/to query parameters, writing the error
// response itself when they are invalid.
func (h *AdminHandler) reportWindow(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	to = time.Now().UTC()
	from = to.AddDate(0, 0, -30)

	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_FROM", "from must be RFC 3339")
			return from, to, false
		}
		from = t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_TO", "to must be RFC 3339")
			return from, to, false
		}
		to = t
	}
	if !from.Before(to) {
		h.writeError(w, http.StatusBadRequest, "INVALID_WINDOW", "from must be before to")
		return from, to, false
	}
	return from, to, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *AdminHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		h.writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrUsernameExists):
		h.writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already exists")
	case errors.Is(err, service.ErrInvalidRole):
		h.writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be asha, supervisor, or admin")
	case errors.Is(err, service.ErrWeakPassword):
		h.writeError(w, http.StatusUnprocessableEntity, "WEAK_PASSWORD", "Password does not meet requirements")
	case errors.Is(err, service.ErrSelfDeactivation):
		h.writeError(w, http.StatusConflict, "SELF_DEACTIVATION", "Cannot deactivate own account")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *AdminHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// tailFile returns the last n lines of a file. The file is scanned
// start to end; log files here rotate at a bounded size so a full scan
// stays cheap.
func tailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ring, nil
}

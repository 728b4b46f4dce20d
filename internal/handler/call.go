package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/telephony"
)

// CallHandler handles HTTP requests from the telephony gateway.
type CallHandler struct {
	registry *telephony.Registry
	logger   *slog.Logger
}

// NewCallHandler creates a new CallHandler.
func NewCallHandler(registry *telephony.Registry, logger *slog.Logger) *CallHandler {
	return &CallHandler{
		registry: registry,
		logger:   logger,
	}
}

// Start handles POST /api/v1/calls.
func (h *CallHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req dto.StartCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Caller number is required")
		return
	}

	result, err := h.registry.StartCall(r.Context(), req.CallerNumber, req.Language)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("call_started",
		"call_id", result.Call.ID,
		"language", result.Call.Language,
	)

	writeJSON(w, http.StatusCreated, dto.StartCallResponse{
		Call:         dto.ToCallResponse(result.Call),
		Welcome:      result.Welcome,
		WelcomeAudio: result.WelcomeAudio,
	})
}

// Get handles GET /api/v1/calls/{id}.
func (h *CallHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Call ID is required")
		return
	}

	call, err := h.registry.Get(id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCallResponse(call))
}

// AppendTranscript handles POST /api/v1/calls/{id}/transcript.
func (h *CallHandler) AppendTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Call ID is required")
		return
	}

	var req dto.TranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Speaker and text are required")
		return
	}

	call, err := h.registry.AppendTranscript(id, req.Speaker, req.Text)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCallResponse(call))
}

// AttachAssessment handles POST /api/v1/calls/{id}/assessment.
func (h *CallHandler) AttachAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Call ID is required")
		return
	}

	var req dto.AttachAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Assessment ID is required")
		return
	}

	if err := h.registry.AttachAssessment(id, req.AssessmentID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "attached"})
}

// End handles POST /api/v1/calls/{id}/end.
func (h *CallHandler) End(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Call ID is required")
		return
	}

	failed := r.URL.Query().Get("failed") == "true"

	call, err := h.registry.EndCall(r.Context(), id, failed)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("call_ended",
		"call_id", call.ID,
		"status", call.Status,
		"duration_sec", call.DurationSec,
	)

	writeJSON(w, http.StatusOK, dto.ToCallResponse(call))
}

// Active handles GET /api/v1/calls/active.
func (h *CallHandler) Active(w http.ResponseWriter, r *http.Request) {
	calls := h.registry.ActiveCalls()
	writeJSON(w, http.StatusOK, map[string]any{
		"calls": dto.ToCallResponses(calls),
		"count": len(calls),
	})
}

// History handles GET /api/v1/calls/history.
func (h *CallHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20, 100)
	calls := h.registry.History(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"calls": dto.ToCallResponses(calls),
		"count": len(calls),
	})
}

// handleServiceError maps registry errors to HTTP responses.
func (h *CallHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, telephony.ErrCallNotFound):
		h.writeError(w, http.StatusNotFound, "CALL_NOT_FOUND", "Call not found")
	case errors.Is(err, telephony.ErrCallEnded):
		h.writeError(w, http.StatusConflict, "CALL_ENDED", "Call has already ended")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *CallHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

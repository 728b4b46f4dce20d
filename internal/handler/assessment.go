package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/service"
)

// AssessmentHandler handles HTTP requests for health assessments.
type AssessmentHandler struct {
	svc    *service.HealthService
	logger *slog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(svc *service.HealthService, logger *slog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		svc:    svc,
		logger: logger,
	}
}

// Assess handles POST /api/v1/assessments.
func (h *AssessmentHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req dto.AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Patient ID and at least one symptom are required")
		return
	}

	assessment, err := h.svc.Assess(r.Context(), service.AssessInput{
		PatientID:  req.PatientID,
		Symptoms:   req.Symptoms,
		VitalSigns: req.VitalSigns,
		AssessedBy: auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("assessment_created",
		"assessment_id", assessment.ID,
		"patient_id", assessment.PatientID,
		"requires_referral", assessment.RequiresReferral,
	)

	writeJSON(w, http.StatusCreated, dto.ToAssessmentResponse(assessment))
}

// Get handles GET /api/v1/assessments/{id}.
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Assessment ID is required")
		return
	}

	assessment, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAssessmentResponse(assessment))
}

// History handles GET /api/v1/patients/{id}/assessments.
func (h *AssessmentHandler) History(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "id")
	if patientID == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Patient ID is required")
		return
	}

	limit := parseLimit(r, 20, 100)

	assessments, err := h.svc.History(r.Context(), patientID, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"assessments": dto.ToAssessmentResponses(assessments),
		"count":       len(assessments),
	})
}

// Referrals handles GET /api/v1/referrals.
func (h *AssessmentHandler) Referrals(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 20, 100)

	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	referrals, err := h.svc.Referrals(r.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"referrals": dto.ToAssessmentResponses(referrals),
		"count":     len(referrals),
	})
}

// Conditions handles GET /api/v1/conditions.
func (h *AssessmentHandler) Conditions(w http.ResponseWriter, r *http.Request) {
	conditions := h.svc.Conditions()

	out := make([]*dto.ConditionResponse, len(conditions))
	for i, c := range conditions {
		out[i] = dto.ToConditionResponse(c)
	}

	writeJSON(w, http.StatusOK, map[string]any{"conditions": out})
}

// handleServiceError maps service errors to HTTP responses.
func (h *AssessmentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoSymptoms):
		h.writeError(w, http.StatusBadRequest, "NO_SYMPTOMS", "At least one symptom is required")
	case errors.Is(err, service.ErrPatientNotFound):
		h.writeError(w, http.StatusNotFound, "PATIENT_NOT_FOUND", "Patient not found")
	case errors.Is(err, service.ErrAssessmentNotFound):
		h.writeError(w, http.StatusNotFound, "ASSESSMENT_NOT_FOUND", "Assessment not found")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *AssessmentHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// parseLimit reads the limit query parameter with a default and cap.
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= max {
			limit = parsed
		}
	}
	return limit
}

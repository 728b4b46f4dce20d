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

// PatientHandler handles HTTP requests for patient records.
type PatientHandler struct {
	svc    *service.PatientService
	logger *slog.Logger
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(svc *service.PatientService, logger *slog.Logger) *PatientHandler {
	return &PatientHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register handles POST /api/v1/patients.
func (h *PatientHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid patient fields")
		return
	}

	patient, err := h.svc.Register(r.Context(), service.RegisterPatientInput{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Village:        req.Village,
		ContactNumber:  req.ContactNumber,
		Pregnant:       req.Pregnant,
		MedicalHistory: req.MedicalHistory,
		RegisteredBy:   auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("patient_registered",
		"patient_id", patient.ID,
		"village", patient.Village,
	)

	writeJSON(w, http.StatusCreated, dto.ToPatientResponse(patient))
}

// Get handles GET /api/v1/patients/{id}.
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Patient ID is required")
		return
	}

	patient, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPatientResponse(patient))
}

// List handles GET /api/v1/patients.
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 50
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	patients, err := h.svc.List(r.Context(), query.Get("village"), query.Get("name"), limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"patients": dto.ToPatientResponses(patients),
		"count":    len(patients),
	})
}

// Update handles PATCH /api/v1/patients/{id}.
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_ID", "Patient ID is required")
		return
	}

	var req dto.UpdatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Invalid patient fields")
		return
	}

	patient, err := h.svc.Update(r.Context(), id, service.UpdatePatientInput{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Village:        req.Village,
		ContactNumber:  req.ContactNumber,
		Pregnant:       req.Pregnant,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("patient_updated", "patient_id", patient.ID)

	writeJSON(w, http.StatusOK, dto.ToPatientResponse(patient))
}

// handleServiceError maps service errors to HTTP responses.
func (h *PatientHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPatientNotFound):
		h.writeError(w, http.StatusNotFound, "PATIENT_NOT_FOUND", "Patient not found")
	case errors.Is(err, service.ErrInvalidAge):
		h.writeError(w, http.StatusBadRequest, "INVALID_AGE", "Age must be between 0 and 120")
	case errors.Is(err, service.ErrInvalidGender):
		h.writeError(w, http.StatusBadRequest, "INVALID_GENDER", "Gender must be male, female, or other")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *PatientHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

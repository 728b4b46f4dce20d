package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/service"
	"github.com/ashaconnect/ashaconnect/internal/voice"
)

// maxAudioUploadBytes caps speech uploads at 8MB.
const maxAudioUploadBytes = 8 << 20

// VoiceHandler handles HTTP requests for the voice interface.
type VoiceHandler struct {
	svc    *service.VoiceService
	logger *slog.Logger
}

// NewVoiceHandler creates a new VoiceHandler.
func NewVoiceHandler(svc *service.VoiceService, logger *slog.Logger) *VoiceHandler {
	return &VoiceHandler{
		svc:    svc,
		logger: logger,
	}
}

// Transcribe handles POST /api/v1/voice/transcribe.
// The request is multipart form data with an "audio" file part and an
// optional "language" field.
func (h *VoiceHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "Expected multipart form data with an audio file")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "MISSING_AUDIO", "Audio file is required")
		return
	}
	defer file.Close()

	userID := auth.UserIDFromContext(r.Context())
	text, language, err := h.svc.Transcribe(r.Context(), file, r.FormValue("language"), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TranscriptionResponse{
		Text:     text,
		Language: language,
	})
}

// Synthesize handles POST /api/v1/voice/synthesize.
// The response body is the synthesized audio.
func (h *VoiceHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req dto.SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Text is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	audio, language, err := h.svc.Synthesize(r.Context(), req.Text, req.Language, userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("X-Voice-Language", language)
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

// DetectLanguage handles POST /api/v1/voice/detect-language.
func (h *VoiceHandler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req dto.DetectLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Text is required")
		return
	}

	code := h.svc.DetectLanguage(req.Text)
	writeJSON(w, http.StatusOK, dto.DetectLanguageResponse{
		Language: code,
		Name:     voice.LanguageName(code),
	})
}

// Languages handles GET /api/v1/voice/languages.
func (h *VoiceHandler) Languages(w http.ResponseWriter, r *http.Request) {
	languages := h.svc.Languages()

	out := make([]dto.LanguageResponse, len(languages))
	for i, lang := range languages {
		out[i] = dto.LanguageResponse{
			Code:       lang.Code,
			Name:       lang.Name,
			NativeName: lang.NativeName,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"languages": out})
}

// SetLanguage handles PUT /api/v1/voice/language.
func (h *VoiceHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req dto.SetLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Language code is required")
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	if err := h.svc.SetLanguage(r.Context(), userID, req.Language); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"language": req.Language,
		"name":     voice.LanguageName(req.Language),
	})
}

// Converse handles POST /api/v1/voice/conversation.
func (h *VoiceHandler) Converse(w http.ResponseWriter, r *http.Request) {
	var req dto.ConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", "Patient ID and utterance are required")
		return
	}

	result, err := h.svc.Converse(r.Context(), service.ConversationInput{
		PatientID: req.PatientID,
		Utterance: req.Utterance,
		Language:  req.Language,
		UserID:    auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("conversation_turn",
		"patient_id", req.PatientID,
		"language", result.Language,
		"assessment_id", result.Assessment.ID,
	)

	writeJSON(w, http.StatusOK, dto.ConversationResponse{
		Assessment: dto.ToAssessmentResponse(result.Assessment),
		Reply:      result.Reply,
		ReplyAudio: result.ReplyAudio,
		Language:   result.Language,
	})
}

// handleServiceError maps service errors to HTTP responses.
func (h *VoiceHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedLanguage):
		h.writeError(w, http.StatusBadRequest, "UNSUPPORTED_LANGUAGE", "Language is not supported")
	case errors.Is(err, service.ErrEmptyUtterance):
		h.writeError(w, http.StatusBadRequest, "EMPTY_UTTERANCE", "Utterance is empty")
	case errors.Is(err, service.ErrNoSymptoms):
		h.writeError(w, http.StatusBadRequest, "NO_SYMPTOMS", "No symptoms recognized in utterance")
	case errors.Is(err, service.ErrPatientNotFound):
		h.writeError(w, http.StatusNotFound, "PATIENT_NOT_FOUND", "Patient not found")
	case errors.Is(err, voice.ErrUnsupportedLanguage):
		h.writeError(w, http.StatusBadRequest, "UNSUPPORTED_LANGUAGE", "Language is not supported")
	case errors.Is(err, voice.ErrEngineUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "SPEECH_UNAVAILABLE", "Speech engine is not available")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *VoiceHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

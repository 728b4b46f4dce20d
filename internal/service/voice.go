package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/voice"
)

// Service-level errors for voice operations.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyUtterance      = errors.New("utterance is empty")
)

// prefVoiceLanguage is the user preference key for the voice language.
const prefVoiceLanguage = "voice_language"

// VoiceService handles speech, language detection, and voice-driven
// assessments.
type VoiceService struct {
	transcriber     voice.Transcriber
	synthesizer     voice.Synthesizer
	users           *UserService
	health          *HealthService
	metrics         metrics.Recorder
	logger          *slog.Logger
	defaultLanguage string
}

// NewVoiceService creates a VoiceService.
func NewVoiceService(tr voice.Transcriber, sy voice.Synthesizer, users *UserService, health *HealthService, recorder metrics.Recorder, logger *slog.Logger, defaultLanguage string) *VoiceService {
	return &VoiceService{
		transcriber:     tr,
		synthesizer:     sy,
		users:           users,
		health:          health,
		metrics:         recorder,
		logger:          logger.With("component", "service.voice"),
		defaultLanguage: defaultLanguage,
	}
}

// Languages returns the supported voice languages.
func (s *VoiceService) Languages() []voice.Language {
	return voice.Languages()
}

// Transcribe converts audio to text in the given language.
// An empty language uses the caller's stored preference, then the default.
func (s *VoiceService) Transcribe(ctx context.Context, audio io.Reader, language, userID string) (string, string, error) {
	language = s.resolveLanguage(ctx, language, userID)
	if s.transcriber == nil {
		return "", language, fmt.Errorf("transcribe: %w", voice.ErrEngineUnavailable)
	}
	s.metrics.IncVoiceRequest("stt")

	text, err := s.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		return "", language, fmt.Errorf("transcribe: %w", err)
	}
	return text, language, nil
}

// Synthesize converts text to spoken audio in the given language.
func (s *VoiceService) Synthesize(ctx context.Context, text, language, userID string) ([]byte, string, error) {
	language = s.resolveLanguage(ctx, language, userID)
	if s.synthesizer == nil {
		return nil, language, fmt.Errorf("synthesize: %w", voice.ErrEngineUnavailable)
	}
	s.metrics.IncVoiceRequest("tts")

	audio, err := s.synthesizer.Synthesize(ctx, text, language)
	if err != nil {
		return nil, language, fmt.Errorf("synthesize: %w", err)
	}
	return audio, language, nil
}

// DetectLanguage guesses the language of a text sample.
func (s *VoiceService) DetectLanguage(text string) string {
	s.metrics.IncVoiceRequest("detect")
	return voice.DetectLanguage(text, s.defaultLanguage)
}

// SetLanguage stores a user's preferred voice language.
func (s *VoiceService) SetLanguage(ctx context.Context, userID, language string) error {
	if !voice.IsSupported(language) {
		return fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	_, err := s.users.UpdatePreferences(ctx, userID, map[string]string{
		prefVoiceLanguage: language,
	})
	return err
}

// ConversationInput is one voice interaction turn.
type ConversationInput struct {
	PatientID string
	Utterance string
	Language  string
	UserID    string
}

// ConversationResult is the assistant's reply to a voice turn.
type ConversationResult struct {
	Assessment *model.Assessment
	Reply      string
	ReplyAudio []byte
	Language   string
}

// Converse treats an utterance as a symptom report, runs an assessment,
// and builds a spoken reply. Reply audio is best effort.
func (s *VoiceService) Converse(ctx context.Context, input ConversationInput) (*ConversationResult, error) {
	utterance := strings.TrimSpace(input.Utterance)
	if utterance == "" {
		return nil, ErrEmptyUtterance
	}

	language := input.Language
	if language == "" {
		language = voice.DetectLanguage(utterance, s.resolveLanguage(ctx, "", input.UserID))
	}
	s.metrics.IncVoiceRequest("conversation")

	assessment, err := s.health.Assess(ctx, AssessInput{
		PatientID:  input.PatientID,
		Symptoms:   splitUtterance(utterance),
		AssessedBy: input.UserID,
	})
	if err != nil {
		return nil, err
	}

	reply := buildReply(assessment)
	result := &ConversationResult{
		Assessment: assessment,
		Reply:      reply,
		Language:   language,
	}

	if s.synthesizer != nil {
		audio, err := s.synthesizer.Synthesize(ctx, reply, language)
		if err != nil {
			s.logger.Warn("reply synthesis failed", "error", err)
		} else {
			result.ReplyAudio = audio
		}
	}
	return result, nil
}

// splitUtterance breaks a spoken symptom report into individual symptoms.
func splitUtterance(utterance string) []string {
	repl := strings.NewReplacer(",", "#", ";", "#", " and ", "#", " aur ", "#")
	var out []string
	for _, part := range strings.Split(repl.Replace(utterance), "#") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// buildReply summarizes an assessment for speech output.
func buildReply(a *model.Assessment) string {
	var b strings.Builder

	if top := a.TopCondition(); top != nil {
		fmt.Fprintf(&b, "The most likely condition is %s with %d percent confidence. ", top.Condition, top.Confidence)
	} else {
		b.WriteString("No specific condition was identified from the reported symptoms. ")
	}

	if a.RequiresReferral {
		b.WriteString("Please refer the patient to the nearest health facility. ")
		if a.ReferralReason != "" {
			b.WriteString(a.ReferralReason + " ")
		}
	}

	if len(a.Recommendations) > 0 {
		b.WriteString("Recommended care: " + strings.Join(a.Recommendations, ". ") + ".")
	}
	return strings.TrimSpace(b.String())
}

// resolveLanguage picks the effective language for a request.
func (s *VoiceService) resolveLanguage(ctx context.Context, language, userID string) string {
	if voice.IsSupported(language) {
		return language
	}
	if userID != "" && s.users != nil {
		if prefs, err := s.users.GetPreferences(ctx, userID); err == nil {
			if pref, ok := prefs[prefVoiceLanguage]; ok && voice.IsSupported(pref) {
				return pref
			}
		}
	}
	return s.defaultLanguage
}

// Package telephony tracks voice calls for workers without smartphones.
// Calls live in memory while active; completed calls are queued for upload
// to the central store alongside other offline records.
package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/voice"
)

var (
	// ErrCallNotFound indicates the call ID is not an active call.
	ErrCallNotFound = errors.New("call not found")
	// ErrCallEnded indicates an operation on a call that already ended.
	ErrCallEnded = errors.New("call already ended")
)

// maxHistory bounds the in-memory record of completed calls.
const maxHistory = 200

// welcomeMessages greet callers in their own language. Languages without
// a translation fall back to Hindi.
var welcomeMessages = map[string]string{
	"hi-IN": "नमस्ते, आशा कनेक्ट में आपका स्वागत है। मैं आपकी स्वास्थ्य आकलन में सहायता कर सकता हूं।",
	"bn-IN": "নমস্কার, আশা কানেক্টে আপনাকে স্বাগতম। আমি আপনার স্বাস্থ্য মূল্যায়নে সাহায্য করতে পারি।",
	"te-IN": "నమస్కారం, ఆశా కనెక్ట్‌కి స్వాగతం. నేను మీ ఆరోగ్య అంచనాలో సహాయం చేయగలను.",
	"ta-IN": "வணக்கம், ஆஷா கனெக்ட்டிற்கு வரவேற்கிறோம். நான் உங்கள் சுகாதார மதிப்பீட்டில் உதவ முடியும்.",
	"mr-IN": "नमस्कार, आशा कनेक्टमध्ये आपले स्वागत आहे. मी आपल्या आरोग्य मूल्यांकनात मदत करू शकतो.",
	"en-IN": "Hello, welcome to ASHA Connect. I can help you with your health assessment.",
}

// WelcomeMessage returns the greeting for a language.
func WelcomeMessage(language string) string {
	if msg, ok := welcomeMessages[language]; ok {
		return msg
	}
	return welcomeMessages["hi-IN"]
}

// Registry tracks calls and produces voice prompts for them.
type Registry struct {
	store           *localstore.Store
	synth           voice.Synthesizer
	metrics         metrics.Recorder
	logger          *slog.Logger
	recordingsPath  string
	defaultLanguage string

	mu      sync.Mutex
	active  map[string]*model.CallRecord
	history []*model.CallRecord
}

// NewRegistry creates a call registry.
func NewRegistry(store *localstore.Store, synth voice.Synthesizer, recorder metrics.Recorder, logger *slog.Logger, recordingsPath, defaultLanguage string) *Registry {
	return &Registry{
		store:           store,
		synth:           synth,
		metrics:         recorder,
		logger:          logger.With("component", "telephony.registry"),
		recordingsPath:  recordingsPath,
		defaultLanguage: defaultLanguage,
		active:          make(map[string]*model.CallRecord),
	}
}

// StartResult is the outcome of answering a call.
type StartResult struct {
	Call         *model.CallRecord
	Welcome      string
	WelcomeAudio []byte
}

// StartCall registers an incoming call and prepares the welcome prompt.
// The welcome audio is best effort: when synthesis is unavailable the text
// prompt is still returned so the caller-facing system can fall back.
func (r *Registry) StartCall(ctx context.Context, callerNumber, language string) (*StartResult, error) {
	if language == "" || !voice.IsSupported(language) {
		language = r.defaultLanguage
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	call := &model.CallRecord{
		ID:            id,
		CallerNumber:  callerNumber,
		Direction:     model.CallIncoming,
		StartTime:     now,
		Language:      language,
		Status:        model.CallStatusActive,
		RecordingPath: filepath.Join(r.recordingsPath, fmt.Sprintf("%s_%d.wav", id, now.Unix())),
	}

	welcome := WelcomeMessage(language)
	call.Transcript = append(call.Transcript, model.TranscriptEntry{
		Speaker:   "system",
		Text:      welcome,
		Timestamp: now,
	})

	r.mu.Lock()
	r.active[call.ID] = call
	r.mu.Unlock()

	r.metrics.IncCallStarted()
	r.logger.Info("call started",
		"call_id", call.ID,
		"language", language,
	)

	result := &StartResult{Call: snapshot(call), Welcome: welcome}
	if r.synth != nil {
		audio, err := r.synth.Synthesize(ctx, welcome, language)
		if err != nil {
			r.logger.Warn("welcome synthesis failed", "call_id", call.ID, "error", err)
		} else {
			result.WelcomeAudio = audio
		}
	}
	return result, nil
}

// AppendTranscript records one utterance on an active call.
func (r *Registry) AppendTranscript(callID, speaker, text string) (*model.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.active[callID]
	if !ok {
		return nil, ErrCallNotFound
	}
	call.Transcript = append(call.Transcript, model.TranscriptEntry{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	return snapshot(call), nil
}

// AttachAssessment links a completed health assessment to an active call.
func (r *Registry) AttachAssessment(callID, assessmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.active[callID]
	if !ok {
		return ErrCallNotFound
	}
	call.AssessmentID = assessmentID
	return nil
}

// EndCall finishes an active call, moves it to history, and queues it for
// upload to the central store.
func (r *Registry) EndCall(ctx context.Context, callID string, failed bool) (*model.CallRecord, error) {
	r.mu.Lock()
	call, ok := r.active[callID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrCallNotFound
	}
	delete(r.active, callID)

	now := time.Now().UTC()
	call.EndTime = &now
	call.DurationSec = int(now.Sub(call.StartTime).Seconds())
	call.Status = model.CallStatusCompleted
	if failed {
		call.Status = model.CallStatusFailed
	}

	r.history = append(r.history, call)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	r.mu.Unlock()

	r.metrics.IncCallCompleted()
	r.logger.Info("call ended",
		"call_id", call.ID,
		"status", call.Status,
		"duration_seconds", call.DurationSec,
	)

	if err := r.enqueueUpload(ctx, call); err != nil {
		// The call stays in history either way; a lost queue entry only
		// delays it reaching the central store.
		r.logger.Error("queue call for sync", "call_id", call.ID, "error", err)
	}

	// Track the recording in the offline resource registry so it shows up
	// in device storage accounting.
	if call.RecordingPath != "" {
		err := r.store.RegisterResource(ctx, &localstore.Resource{
			ID:        "recording:" + call.ID,
			Name:      filepath.Base(call.RecordingPath),
			Category:  "recordings",
			Path:      call.RecordingPath,
			Language:  call.Language,
			CreatedAt: call.StartTime,
		})
		if err != nil {
			r.logger.Warn("register recording resource", "call_id", call.ID, "error", err)
		}
	}
	return snapshot(call), nil
}

func (r *Registry) enqueueUpload(ctx context.Context, call *model.CallRecord) error {
	payload, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call record: %w", err)
	}
	return r.store.Enqueue(ctx, &model.SyncRecord{
		RecordType: model.RecordTypeCall,
		RecordID:   call.ID,
		Operation:  model.SyncOpCreate,
		Payload:    payload,
		Priority:   model.SyncPriority(model.RecordTypeCall),
		Status:     model.SyncStatusPending,
		CreatedAt:  time.Now().UTC(),
	})
}

// Get returns an active call by ID.
func (r *Registry) Get(callID string) (*model.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, ok := r.active[callID]
	if !ok {
		return nil, ErrCallNotFound
	}
	return snapshot(call), nil
}

// ActiveCalls lists calls currently in progress.
func (r *Registry) ActiveCalls() []*model.CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.CallRecord, 0, len(r.active))
	for _, call := range r.active {
		out = append(out, snapshot(call))
	}
	return out
}

// History lists completed calls, most recent first.
func (r *Registry) History(limit int) []*model.CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*model.CallRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, snapshot(r.history[i]))
	}
	return out
}

// snapshot copies a call record so callers cannot mutate registry state.
func snapshot(call *model.CallRecord) *model.CallRecord {
	cp := *call
	cp.Transcript = make([]model.TranscriptEntry, len(call.Transcript))
	copy(cp.Transcript, call.Transcript)
	return &cp
}

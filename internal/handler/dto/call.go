package dto

import (
	"time"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// StartCallRequest represents the request body for answering an incoming call.
type StartCallRequest struct {
	CallerNumber string `json:"caller_number" validate:"required,max=20"`
	Language     string `json:"language,omitempty" validate:"omitempty,max=8"`
}

// StartCallResponse carries the new call and its welcome prompt.
type StartCallResponse struct {
	Call         *CallResponse `json:"call"`
	Welcome      string        `json:"welcome"`
	WelcomeAudio []byte        `json:"welcome_audio,omitempty"`
}

// TranscriptRequest appends one utterance to a call transcript.
type TranscriptRequest struct {
	Speaker string `json:"speaker" validate:"required,oneof=caller system assistant"`
	Text    string `json:"text" validate:"required,max=2000"`
}

// AttachAssessmentRequest links an assessment to a call.
type AttachAssessmentRequest struct {
	AssessmentID string `json:"assessment_id" validate:"required"`
}

// TranscriptEntryResponse is one line of a call transcript.
type TranscriptEntryResponse struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CallResponse represents a call record in API responses.
type CallResponse struct {
	CallID        string                    `json:"call_id"`
	CallerNumber  string                    `json:"caller_number"`
	Direction     string                    `json:"direction"`
	StartTime     time.Time                 `json:"start_time"`
	EndTime       *time.Time                `json:"end_time,omitempty"`
	DurationSec   int                       `json:"duration_sec"`
	Language      string                    `json:"language"`
	Status        string                    `json:"status"`
	RecordingPath string                    `json:"recording_path,omitempty"`
	Transcript    []TranscriptEntryResponse `json:"transcript,omitempty"`
	AssessmentID  string                    `json:"assessment_id,omitempty"`
}

// ToCallResponse converts a CallRecord model to CallResponse DTO.
func ToCallResponse(c *model.CallRecord) *CallResponse {
	transcript := make([]TranscriptEntryResponse, len(c.Transcript))
	for i, e := range c.Transcript {
		transcript[i] = TranscriptEntryResponse{Speaker: e.Speaker, Text: e.Text, Timestamp: e.Timestamp}
	}
	return &CallResponse{
		CallID:        c.ID,
		CallerNumber:  c.CallerNumber,
		Direction:     string(c.Direction),
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		DurationSec:   c.DurationSec,
		Language:      c.Language,
		Status:        string(c.Status),
		RecordingPath: c.RecordingPath,
		Transcript:    transcript,
		AssessmentID:  c.AssessmentID,
	}
}

// ToCallResponses converts a list of call records.
func ToCallResponses(calls []*model.CallRecord) []*CallResponse {
	out := make([]*CallResponse, len(calls))
	for i, c := range calls {
		out[i] = ToCallResponse(c)
	}
	return out
}

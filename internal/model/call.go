package model

import "time"

// CallDirection indicates who initiated a call.
type CallDirection string

const (
	CallIncoming CallDirection = "incoming"
	CallOutgoing CallDirection = "outgoing"
)

// CallStatus represents the lifecycle state of a call.
type CallStatus string

const (
	CallStatusActive    CallStatus = "active"
	CallStatusCompleted CallStatus = "completed"
	CallStatusFailed    CallStatus = "failed"
)

// TranscriptEntry is one utterance in a call transcript.
type TranscriptEntry struct {
	Speaker   string    `json:"speaker"` // "caller" or "system"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// CallRecord represents a tracked voice call.
type CallRecord struct {
	ID            string            `json:"call_id"`
	CallerNumber  string            `json:"caller_number"`
	Direction     CallDirection     `json:"direction"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	DurationSec   int               `json:"duration_seconds"`
	Language      string            `json:"language"`
	Status        CallStatus        `json:"status"`
	RecordingPath string            `json:"recording_path,omitempty"`
	Transcript    []TranscriptEntry `json:"transcript,omitempty"`
	AssessmentID  string            `json:"assessment_id,omitempty"`
}

// IsActive returns true while the call is still in progress.
func (c *CallRecord) IsActive() bool {
	return c.Status == CallStatusActive
}

// Duration computes the call duration, using the current time for
// calls still in progress.
func (c *CallRecord) Duration() time.Duration {
	if c.EndTime != nil {
		return c.EndTime.Sub(c.StartTime)
	}
	return time.Since(c.StartTime)
}

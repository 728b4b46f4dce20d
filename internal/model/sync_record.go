package model

import "time"

// SyncStatus represents the lifecycle state of a queued sync record.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusFailed  SyncStatus = "failed"
)

// RecordType identifies what kind of record a sync entry carries.
type RecordType string

const (
	RecordTypeAssessment   RecordType = "health_assessments"
	RecordTypePatient      RecordType = "patients"
	RecordTypeCall         RecordType = "call_records"
	RecordTypeUserActivity RecordType = "user_activity"
)

// SyncOperation is the mutation a sync record replays against the central store.
type SyncOperation string

const (
	SyncOpCreate SyncOperation = "create"
	SyncOpUpdate SyncOperation = "update"
	SyncOpDelete SyncOperation = "delete"
)

// SyncPriority returns the queue priority for a record type.
// Higher values are synced first.
func SyncPriority(rt RecordType) int {
	switch rt {
	case RecordTypeAssessment:
		return 10
	case RecordTypePatient:
		return 5
	case RecordTypeCall:
		return 3
	case RecordTypeUserActivity:
		return 1
	default:
		return 1
	}
}

// SyncRecord is one queued change awaiting upload to the central store.
type SyncRecord struct {
	ID         string        `json:"id"`
	RecordType RecordType    `json:"record_type"`
	RecordID   string        `json:"record_id"`
	Operation  SyncOperation `json:"operation"`
	Payload    []byte        `json:"payload"`
	Priority   int           `json:"priority"`
	Status     SyncStatus    `json:"status"`
	RetryCount int           `json:"retry_count"`
	LastError  string        `json:"last_error,omitempty"`
	NextRetry  *time.Time    `json:"next_retry,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	SyncedAt   *time.Time    `json:"synced_at,omitempty"`
}

// IsTerminal reports whether the record needs no further sync attempts.
// Failed records stay terminal until explicitly retried.
func (s *SyncRecord) IsTerminal() bool {
	return s.Status == SyncStatusSynced || s.Status == SyncStatusFailed
}

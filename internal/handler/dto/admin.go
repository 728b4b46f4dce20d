package dto

import (
	"time"

	"github.com/ashaconnect/ashaconnect/internal/localstore"
)

// SyncStatusResponse reports the state of the offline sync queue.
type SyncStatusResponse struct {
	Pending       int64      `json:"pending"`
	Synced        int64      `json:"synced"`
	Failed        int64      `json:"failed"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	OldestPending *time.Time `json:"oldest_pending,omitempty"`
}

// ToSyncStatusResponse converts a queue status to its response form.
func ToSyncStatusResponse(qs *localstore.QueueStatus) *SyncStatusResponse {
	return &SyncStatusResponse{
		Pending:       qs.Pending,
		Synced:        qs.Synced,
		Failed:        qs.Failed,
		LastSyncedAt:  qs.LastSyncedAt,
		OldestPending: qs.OldestPending,
	}
}

// SyncTriggerResponse acknowledges a manual sync trigger.
type SyncTriggerResponse struct {
	Triggered bool `json:"triggered"`
}

// SyncRetryResponse reports how many failed records were requeued.
type SyncRetryResponse struct {
	Requeued int64 `json:"requeued"`
}

// SystemInfoResponse exposes runtime information for administrators.
type SystemInfoResponse struct {
	Name               string     `json:"name"`
	Version            string     `json:"version"`
	Environment        string     `json:"environment"`
	Uptime             string     `json:"uptime"`
	GoVersion          string     `json:"go_version"`
	NumGoroutines      int        `json:"num_goroutines"`
	LocalStoreBytes    int64      `json:"local_store_bytes"`
	ModelAvailable     bool       `json:"model_available"`
	SupportedLanguages int        `json:"supported_languages"`
	ActiveCalls        int        `json:"active_calls"`
	SyncPending        int64      `json:"sync_pending"`
	SyncFailed         int64      `json:"sync_failed"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
}

// LogsResponse carries the tail of the application log file.
type LogsResponse struct {
	File  string   `json:"file"`
	Lines []string `json:"lines"`
}

// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Auth metrics
	IncLogin(status string) // status: "success" or "failure"

	// Assessment metrics
	IncAssessment(source string) // source: "rules" or "merged"
	IncReferral()

	// Voice metrics
	IncVoiceRequest(kind string) // kind: "stt", "tts", "detect", "conversation"

	// Call metrics
	IncCallStarted()
	IncCallCompleted()

	// Sync pipeline metrics
	IncSyncUpload(status string) // status: "success", "retry", "failed"
	SetSyncQueueDepth(depth int64)
	ObserveSyncBatchDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

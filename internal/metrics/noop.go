package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// IncAssessment is a no-op.
func (n *NoopRecorder) IncAssessment(source string) {}

// IncReferral is a no-op.
func (n *NoopRecorder) IncReferral() {}

// IncVoiceRequest is a no-op.
func (n *NoopRecorder) IncVoiceRequest(kind string) {}

// IncCallStarted is a no-op.
func (n *NoopRecorder) IncCallStarted() {}

// IncCallCompleted is a no-op.
func (n *NoopRecorder) IncCallCompleted() {}

// IncSyncUpload is a no-op.
func (n *NoopRecorder) IncSyncUpload(status string) {}

// SetSyncQueueDepth is a no-op.
func (n *NoopRecorder) SetSyncQueueDepth(depth int64) {}

// ObserveSyncBatchDuration is a no-op.
func (n *NoopRecorder) ObserveSyncBatchDuration(duration time.Duration) {}

package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginSuccesses      uint64
	LoginFailures       uint64
	Assessments         uint64
	Referrals           uint64
	VoiceRequests       uint64
	CallsStarted        uint64
	CallsCompleted      uint64
	SyncSuccesses       uint64
	SyncRetries         uint64
	SyncFailures        uint64
	SyncQueueDepth      int64
	SyncBatchCount      uint64
	SyncBatchTotalNs    int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	loginSuccesses   uint64
	loginFailures    uint64
	assessments      uint64
	referrals        uint64
	voiceRequests    uint64
	callsStarted     uint64
	callsCompleted   uint64
	syncSuccesses    uint64
	syncRetries      uint64
	syncFailures     uint64
	syncQueueDepth   int64
	syncBatchCount   uint64
	syncBatchTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		LoginSuccesses:   atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:    atomic.LoadUint64(&m.loginFailures),
		Assessments:      atomic.LoadUint64(&m.assessments),
		Referrals:        atomic.LoadUint64(&m.referrals),
		VoiceRequests:    atomic.LoadUint64(&m.voiceRequests),
		CallsStarted:     atomic.LoadUint64(&m.callsStarted),
		CallsCompleted:   atomic.LoadUint64(&m.callsCompleted),
		SyncSuccesses:    atomic.LoadUint64(&m.syncSuccesses),
		SyncRetries:      atomic.LoadUint64(&m.syncRetries),
		SyncFailures:     atomic.LoadUint64(&m.syncFailures),
		SyncQueueDepth:   atomic.LoadInt64(&m.syncQueueDepth),
		SyncBatchCount:   atomic.LoadUint64(&m.syncBatchCount),
		SyncBatchTotalNs: atomic.LoadInt64(&m.syncBatchTotalNs),
	}
}

// IncLogin increments the login counter for the given status.
func (m *InMemoryRecorder) IncLogin(status string) {
	if status == "success" {
		atomic.AddUint64(&m.loginSuccesses, 1)
		return
	}
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncAssessment increments the assessment counter.
func (m *InMemoryRecorder) IncAssessment(source string) {
	atomic.AddUint64(&m.assessments, 1)
}

// IncReferral increments the referral counter.
func (m *InMemoryRecorder) IncReferral() {
	atomic.AddUint64(&m.referrals, 1)
}

// IncVoiceRequest increments the voice request counter.
func (m *InMemoryRecorder) IncVoiceRequest(kind string) {
	atomic.AddUint64(&m.voiceRequests, 1)
}

// IncCallStarted increments the calls started counter.
func (m *InMemoryRecorder) IncCallStarted() {
	atomic.AddUint64(&m.callsStarted, 1)
}

// IncCallCompleted increments the calls completed counter.
func (m *InMemoryRecorder) IncCallCompleted() {
	atomic.AddUint64(&m.callsCompleted, 1)
}

// IncSyncUpload increments the sync upload counter for the given status.
func (m *InMemoryRecorder) IncSyncUpload(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.syncSuccesses, 1)
	case "retry":
		atomic.AddUint64(&m.syncRetries, 1)
	default:
		atomic.AddUint64(&m.syncFailures, 1)
	}
}

// SetSyncQueueDepth records the current queue depth.
func (m *InMemoryRecorder) SetSyncQueueDepth(depth int64) {
	atomic.StoreInt64(&m.syncQueueDepth, depth)
}

// ObserveSyncBatchDuration records one sync batch duration.
func (m *InMemoryRecorder) ObserveSyncBatchDuration(duration time.Duration) {
	atomic.AddUint64(&m.syncBatchCount, 1)
	atomic.AddInt64(&m.syncBatchTotalNs, duration.Nanoseconds())
}

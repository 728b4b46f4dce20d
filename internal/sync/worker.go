// Package sync uploads offline records from the local store to the central
// store, with prioritized batching, retry with backoff, and timestamp-based
// conflict resolution.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

const (
	// DefaultBatchSize is the number of records to process per cycle.
	DefaultBatchSize = 50
	// maintenanceInterval is how often retention and storage cleanup run.
	maintenanceInterval = time.Hour
)

// Uploader writes records into the central store. Conflict resolution lives
// behind this interface: stores only apply a record when it is at least as
// new as what they already hold.
type Uploader interface {
	UpsertPatient(ctx context.Context, p *model.Patient) error
	UpsertAssessment(ctx context.Context, a *model.Assessment) error
	UpsertCallRecord(ctx context.Context, c *model.CallRecord) error
}

// Worker drains the sync queue on an interval.
type Worker struct {
	store           *localstore.Store
	central         Uploader
	logger          *slog.Logger
	metrics         metrics.Recorder
	batchSize       int
	interval        time.Duration
	maxAttempts     int
	retention       time.Duration
	storageBudget   int64
	trigger         chan struct{}
	lastMaintenance time.Time
	started         bool
}

// Options configure a Worker beyond its required dependencies.
type Options struct {
	Interval      time.Duration
	BatchSize     int
	MaxAttempts   int
	Retention     time.Duration
	StorageBudget int64 // bytes; 0 disables storage enforcement
}

// NewWorker creates a sync worker.
func NewWorker(store *localstore.Store, central Uploader, logger *slog.Logger, recorder metrics.Recorder, opts Options) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	return &Worker{
		store:         store,
		central:       central,
		logger:        logger.With("component", "sync.worker"),
		metrics:       recorder,
		batchSize:     opts.BatchSize,
		interval:      opts.Interval,
		maxAttempts:   opts.MaxAttempts,
		retention:     opts.Retention,
		storageBudget: opts.StorageBudget,
		trigger:       make(chan struct{}, 1),
	}
}

// Run starts the worker loop. Blocks until context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w.started {
		return errors.New("worker already started")
	}
	w.started = true

	w.logger.Info("sync worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sync worker stopping")
			return ctx.Err()
		case <-ticker.C:
		case <-w.trigger:
		}

		if err := w.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("sync cycle error", "error", err)
		}
	}
}

// TriggerNow requests an immediate sync cycle. Non-blocking; if a cycle is
// already queued the request is coalesced.
func (w *Worker) TriggerNow() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the sync queue.
func (w *Worker) Status(ctx context.Context) (*localstore.QueueStatus, error) {
	return w.store.Status(ctx)
}

// RetryFailed requeues permanently failed records and triggers a cycle.
func (w *Worker) RetryFailed(ctx context.Context) (int64, error) {
	n, err := w.store.ResetFailed(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		w.TriggerNow()
	}
	return n, nil
}

// ProcessOnce runs one sync cycle: maintenance, then a batch upload.
func (w *Worker) ProcessOnce(ctx context.Context) error {
	w.maybeRunMaintenance(ctx)

	start := time.Now()
	records, err := w.store.PendingRecords(ctx, w.batchSize, time.Now())
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.upload(ctx, rec); err != nil {
			w.logger.Warn("record upload failed",
				"record_id", rec.ID,
				"record_type", rec.RecordType,
				"error", err,
			)
		}
	}

	if len(records) > 0 {
		w.metrics.ObserveSyncBatchDuration(time.Since(start))
	}

	status, err := w.store.Status(ctx)
	if err == nil {
		w.metrics.SetSyncQueueDepth(status.Pending)
	}

	return nil
}

// upload pushes a single record to the central store and updates its
// queue state.
func (w *Worker) upload(ctx context.Context, rec *model.SyncRecord) error {
	err := w.apply(ctx, rec)
	if err == nil {
		w.logger.Info("record synced",
			"record_id", rec.ID,
			"record_type", rec.RecordType,
			"retry_count", rec.RetryCount,
		)
		w.metrics.IncSyncUpload("success")
		return w.store.MarkSynced(ctx, rec.ID, time.Now().UTC())
	}

	if errors.Is(err, ErrUnknownRecordType) || errors.Is(err, ErrMalformedPayload) {
		// No retry will ever fix these.
		w.metrics.IncSyncUpload("failed")
		if markErr := w.store.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}

	nextAttempt := rec.RetryCount + 1
	if IsExhausted(nextAttempt, w.maxAttempts) {
		w.metrics.IncSyncUpload("failed")
		if markErr := w.store.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}

	w.metrics.IncSyncUpload("retry")
	if markErr := w.store.MarkRetry(ctx, rec.ID, nextAttempt, err.Error(), NextRetryAt(rec.RetryCount)); markErr != nil {
		return markErr
	}
	return err
}

// apply decodes the record payload and writes it to the central store.
// A payload without an updated_at timestamp gets stamped with the upload
// time: the central upserts keep whichever side is newer, and a local
// record with no timestamp must win over the central copy.
func (w *Worker) apply(ctx context.Context, rec *model.SyncRecord) error {
	switch rec.RecordType {
	case model.RecordTypePatient:
		var p model.Patient
		if err := json.Unmarshal(rec.Payload, &p); err != nil || p.ID == "" {
			return ErrMalformedPayload
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now().UTC()
		}
		return w.central.UpsertPatient(ctx, &p)

	case model.RecordTypeAssessment:
		var a model.Assessment
		if err := json.Unmarshal(rec.Payload, &a); err != nil || a.ID == "" {
			return ErrMalformedPayload
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = time.Now().UTC()
		}
		return w.central.UpsertAssessment(ctx, &a)

	case model.RecordTypeCall:
		var c model.CallRecord
		if err := json.Unmarshal(rec.Payload, &c); err != nil || c.ID == "" {
			return ErrMalformedPayload
		}
		return w.central.UpsertCallRecord(ctx, &c)

	case model.RecordTypeUserActivity:
		// Activity entries are advisory; there is nothing central to write yet.
		return nil

	default:
		return ErrUnknownRecordType
	}
}

// maybeRunMaintenance runs retention cleanup and storage budget enforcement
// at most once per maintenanceInterval.
func (w *Worker) maybeRunMaintenance(ctx context.Context) {
	if time.Since(w.lastMaintenance) < maintenanceInterval {
		return
	}
	w.lastMaintenance = time.Now()

	if w.retention > 0 {
		cutoff := time.Now().Add(-w.retention)
		deleted, err := w.store.CleanupSynced(ctx, cutoff)
		if err != nil {
			w.logger.Warn("retention cleanup failed", "error", err)
		} else if deleted > 0 {
			w.logger.Info("retention cleanup", "deleted", deleted)
		}
	}

	if w.storageBudget > 0 {
		if _, err := w.store.EnforceStorageBudget(ctx, w.storageBudget); err != nil {
			w.logger.Warn("storage enforcement failed", "error", err)
		}
	}
}

package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	patients    []*model.Patient
	assessments []*model.Assessment
	calls       []*model.CallRecord
	err         error
}

func (f *fakeUploader) UpsertPatient(ctx context.Context, p *model.Patient) error {
	if f.err != nil {
		return f.err
	}
	f.patients = append(f.patients, p)
	return nil
}

func (f *fakeUploader) UpsertAssessment(ctx context.Context, a *model.Assessment) error {
	if f.err != nil {
		return f.err
	}
	f.assessments = append(f.assessments, a)
	return nil
}

func (f *fakeUploader) UpsertCallRecord(ctx context.Context, c *model.CallRecord) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, c)
	return nil
}

func setupWorker(t *testing.T, central Uploader) (*Worker, *localstore.Store, *metrics.InMemoryRecorder) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := localstore.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	recorder := metrics.NewInMemory()
	worker := NewWorker(store, central, logger, recorder, Options{
		Interval:  time.Minute,
		BatchSize: 10,
	})
	return worker, store, recorder
}

func enqueuePatient(t *testing.T, store *localstore.Store, id string) {
	t.Helper()

	now := time.Now().UTC()
	payload, err := json.Marshal(&model.Patient{
		ID:        id,
		Name:      "Meena Devi",
		Age:       29,
		Village:   "Rampur",
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	require.NoError(t, store.Enqueue(context.Background(), &model.SyncRecord{
		ID:         "queue-" + id,
		RecordType: model.RecordTypePatient,
		RecordID:   id,
		Operation:  model.SyncOpCreate,
		Payload:    payload,
		Priority:   model.SyncPriority(model.RecordTypePatient),
		Status:     model.SyncStatusPending,
		CreatedAt:  now,
	}))
}

func TestProcessOnceUploadsAndMarksSynced(t *testing.T) {
	central := &fakeUploader{}
	worker, store, recorder := setupWorker(t, central)
	ctx := context.Background()

	enqueuePatient(t, store, "pat-1")
	enqueuePatient(t, store, "pat-2")

	require.NoError(t, worker.ProcessOnce(ctx))

	assert.Len(t, central.patients, 2)

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, status.Pending)
	assert.EqualValues(t, 2, status.Synced)

	snap := recorder.Snapshot()
	assert.EqualValues(t, 2, snap.SyncSuccesses)
	assert.EqualValues(t, 0, snap.SyncQueueDepth)
}

func TestUploadStampsMissingUpdatedAt(t *testing.T) {
	central := &fakeUploader{}
	worker, store, _ := setupWorker(t, central)

	payload, err := json.Marshal(&model.Patient{ID: "pat-legacy", Name: "Meena Devi"})
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(context.Background(), &model.SyncRecord{
		ID:         "queue-pat-legacy",
		RecordType: model.RecordTypePatient,
		RecordID:   "pat-legacy",
		Operation:  model.SyncOpCreate,
		Payload:    payload,
		Priority:   model.SyncPriority(model.RecordTypePatient),
		Status:     model.SyncStatusPending,
		CreatedAt:  time.Now().UTC(),
	}))

	require.NoError(t, worker.ProcessOnce(context.Background()))

	require.Len(t, central.patients, 1)
	assert.False(t, central.patients[0].UpdatedAt.IsZero(),
		"records without a timestamp are stamped at upload so the local copy wins the upsert")
}

func TestProcessOnceSchedulesRetryOnTransientFailure(t *testing.T) {
	central := &fakeUploader{err: errors.New("central store unreachable")}
	worker, store, recorder := setupWorker(t, central)
	ctx := context.Background()

	enqueuePatient(t, store, "pat-1")

	require.NoError(t, worker.ProcessOnce(ctx))

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.Pending, "record should stay pending for retry")

	// The retry is scheduled in the future, so it is not due now.
	due, err := store.PendingRecords(ctx, 10, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)

	// But it is due after the first backoff window.
	due, err = store.PendingRecords(ctx, 10, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].RetryCount)
	assert.Contains(t, due[0].LastError, "unreachable")

	assert.EqualValues(t, 1, recorder.Snapshot().SyncRetries)
}

func TestProcessOnceExhaustsRetries(t *testing.T) {
	central := &fakeUploader{err: errors.New("still down")}
	worker, store, recorder := setupWorker(t, central)
	ctx := context.Background()

	now := time.Now().UTC()
	payload, _ := json.Marshal(&model.Patient{ID: "pat-1", UpdatedAt: now})
	require.NoError(t, store.Enqueue(ctx, &model.SyncRecord{
		ID:         "queue-1",
		RecordType: model.RecordTypePatient,
		RecordID:   "pat-1",
		Operation:  model.SyncOpUpdate,
		Payload:    payload,
		Priority:   5,
		Status:     model.SyncStatusPending,
		RetryCount: DefaultMaxAttempts - 1,
		CreatedAt:  now,
	}))

	require.NoError(t, worker.ProcessOnce(ctx))

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.Failed, "record past max attempts should be failed")
	assert.EqualValues(t, 1, recorder.Snapshot().SyncFailures)
}

func TestProcessOncePermanentFailures(t *testing.T) {
	central := &fakeUploader{}
	worker, store, _ := setupWorker(t, central)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Enqueue(ctx, &model.SyncRecord{
		ID:         "queue-bad-type",
		RecordType: model.RecordType("bogus"),
		RecordID:   "x",
		Operation:  model.SyncOpCreate,
		Payload:    []byte(`{}`),
		Priority:   1,
		Status:     model.SyncStatusPending,
		CreatedAt:  now,
	}))
	require.NoError(t, store.Enqueue(ctx, &model.SyncRecord{
		ID:         "queue-bad-payload",
		RecordType: model.RecordTypePatient,
		RecordID:   "y",
		Operation:  model.SyncOpCreate,
		Payload:    []byte(`not json`),
		Priority:   5,
		Status:     model.SyncStatusPending,
		CreatedAt:  now,
	}))

	require.NoError(t, worker.ProcessOnce(ctx))

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, status.Failed, "permanent failures skip the retry schedule")
	assert.Empty(t, central.patients)
}

func TestRetryFailedRequeues(t *testing.T) {
	central := &fakeUploader{err: errors.New("down")}
	worker, store, _ := setupWorker(t, central)
	ctx := context.Background()

	enqueuePatient(t, store, "pat-1")
	require.NoError(t, store.MarkFailed(ctx, "queue-pat-1", "gave up"))

	n, err := worker.RetryFailed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Central store back up: next cycle should drain the queue.
	central.err = nil
	require.NoError(t, worker.ProcessOnce(ctx))
	assert.Len(t, central.patients, 1)
}

func TestUserActivityRecordsAreAccepted(t *testing.T) {
	central := &fakeUploader{}
	worker, store, _ := setupWorker(t, central)
	ctx := context.Background()

	require.NoError(t, store.Enqueue(ctx, &model.SyncRecord{
		ID:         "queue-activity",
		RecordType: model.RecordTypeUserActivity,
		RecordID:   "act-1",
		Operation:  model.SyncOpCreate,
		Payload:    []byte(`{"event":"login"}`),
		Priority:   1,
		Status:     model.SyncStatusPending,
		CreatedAt:  time.Now().UTC(),
	}))

	require.NoError(t, worker.ProcessOnce(ctx))

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.Synced)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	worker, _, _ := setupWorker(t, &fakeUploader{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

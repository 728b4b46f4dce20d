package localstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func newPatient(id, village string) *model.Patient {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Patient{
		ID:             id,
		Name:           "Radha Kumari",
		Age:            32,
		Gender:         "female",
		Village:        village,
		MedicalHistory: []string{"anemia"},
		RegisteredBy:   "user-1",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestSaveAndGetPatient(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := newPatient("pat-1", "Rampur")
	require.NoError(t, store.SavePatient(ctx, p))

	got, err := store.GetPatient(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Village, got.Village)
	assert.Equal(t, []string{"anemia"}, got.MedicalHistory)
}

func TestGetPatientNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetPatient(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePatientReplacesExisting(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	p := newPatient("pat-1", "Rampur")
	require.NoError(t, store.SavePatient(ctx, p))

	p.Village = "Sitapur"
	p.UpdatedAt = p.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.SavePatient(ctx, p))

	got, err := store.GetPatient(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, "Sitapur", got.Village)
}

func TestListPatientsByVillage(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePatient(ctx, newPatient("pat-1", "Rampur")))
	require.NoError(t, store.SavePatient(ctx, newPatient("pat-2", "Rampur")))
	require.NoError(t, store.SavePatient(ctx, newPatient("pat-3", "Sitapur")))

	patients, err := store.ListPatients(ctx, "Rampur", "", 10)
	require.NoError(t, err)
	assert.Len(t, patients, 2)

	patients, err = store.ListPatients(ctx, "", "Radha", 10)
	require.NoError(t, err)
	assert.Len(t, patients, 3)
}

func TestSaveAndListAssessments(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	a := &model.Assessment{
		ID:        "asm-1",
		PatientID: "pat-1",
		Symptoms:  []string{"fever", "chills"},
		VitalSigns: map[string]string{
			"temperature": "39.2",
		},
		Conditions: []model.ConditionMatch{
			{Condition: "malaria", Confidence: 75},
		},
		RequiresReferral: true,
		ReferralReason:   "high confidence malaria",
		Recommendations:  []string{"Refer to PHC immediately"},
		CreatedBy:        "user-1",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, store.SaveAssessment(ctx, a))

	got, err := store.GetAssessment(ctx, "asm-1")
	require.NoError(t, err)
	assert.Equal(t, a.Symptoms, got.Symptoms)
	assert.Equal(t, "39.2", got.VitalSigns["temperature"])
	require.Len(t, got.Conditions, 1)
	assert.Equal(t, "malaria", got.Conditions[0].Condition)
	assert.True(t, got.RequiresReferral)

	list, err := store.ListAssessmentsByPatient(ctx, "pat-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func queuedRecord(id string, rt model.RecordType, createdAt time.Time) *model.SyncRecord {
	return &model.SyncRecord{
		ID:         id,
		RecordType: rt,
		RecordID:   "rec-" + id,
		Operation:  model.SyncOpCreate,
		Payload:    []byte(`{}`),
		Priority:   model.SyncPriority(rt),
		Status:     model.SyncStatusPending,
		CreatedAt:  createdAt,
	}
}

func TestPendingRecordsOrdering(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	// Low priority but oldest.
	require.NoError(t, store.Enqueue(ctx, queuedRecord("q1", model.RecordTypeUserActivity, base)))
	// High priority, newer.
	require.NoError(t, store.Enqueue(ctx, queuedRecord("q2", model.RecordTypeAssessment, base.Add(10*time.Minute))))
	// Same priority as q2 but older.
	require.NoError(t, store.Enqueue(ctx, queuedRecord("q3", model.RecordTypeAssessment, base.Add(5*time.Minute))))
	// Medium priority.
	require.NoError(t, store.Enqueue(ctx, queuedRecord("q4", model.RecordTypePatient, base)))

	records, err := store.PendingRecords(ctx, 10, time.Now())
	require.NoError(t, err)
	require.Len(t, records, 4)

	var order []string
	for _, r := range records {
		order = append(order, r.ID)
	}
	assert.Equal(t, []string{"q3", "q2", "q4", "q1"}, order)
}

func TestPendingRecordsRetryCountOrdering(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	r1 := queuedRecord("q1", model.RecordTypePatient, base)
	r1.RetryCount = 3
	r2 := queuedRecord("q2", model.RecordTypePatient, base.Add(time.Minute))
	require.NoError(t, store.Enqueue(ctx, r1))
	require.NoError(t, store.Enqueue(ctx, r2))

	records, err := store.PendingRecords(ctx, 10, time.Now())
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Fresh record goes before the repeatedly failing one.
	assert.Equal(t, "q2", records[0].ID)
}

func TestPendingRecordsHonorsNextRetry(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	rec := queuedRecord("q1", model.RecordTypePatient, now.Add(-time.Hour))
	require.NoError(t, store.Enqueue(ctx, rec))
	require.NoError(t, store.MarkRetry(ctx, "q1", 1, "connection refused", now.Add(30*time.Minute)))

	records, err := store.PendingRecords(ctx, 10, now)
	require.NoError(t, err)
	assert.Empty(t, records, "record with future next_retry should not be due")

	records, err = store.PendingRecords(ctx, 10, now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].RetryCount)
	assert.Equal(t, "connection refused", records[0].LastError)
}

func TestMarkSyncedAndStatus(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Enqueue(ctx, queuedRecord("q1", model.RecordTypePatient, now.Add(-2*time.Hour))))
	require.NoError(t, store.Enqueue(ctx, queuedRecord("q2", model.RecordTypePatient, now.Add(-time.Hour))))
	require.NoError(t, store.Enqueue(ctx, queuedRecord("q3", model.RecordTypePatient, now)))

	require.NoError(t, store.MarkSynced(ctx, "q1", now))
	require.NoError(t, store.MarkFailed(ctx, "q2", "malformed payload"))

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.Pending)
	assert.EqualValues(t, 1, status.Synced)
	assert.EqualValues(t, 1, status.Failed)
	require.NotNil(t, status.LastSyncedAt)
	require.NotNil(t, status.OldestPending)
}

func TestResetFailed(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Enqueue(ctx, queuedRecord("q1", model.RecordTypePatient, now)))
	require.NoError(t, store.MarkFailed(ctx, "q1", "boom"))

	n, err := store.ResetFailed(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	records, err := store.PendingRecords(ctx, 10, time.Now())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].RetryCount)
	assert.Empty(t, records[0].LastError)
}

func TestCleanupSynced(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := queuedRecord("q1", model.RecordTypePatient, now.Add(-40*24*time.Hour))
	recent := queuedRecord("q2", model.RecordTypePatient, now.Add(-time.Hour))
	pendingOld := queuedRecord("q3", model.RecordTypePatient, now.Add(-40*24*time.Hour))

	require.NoError(t, store.Enqueue(ctx, old))
	require.NoError(t, store.Enqueue(ctx, recent))
	require.NoError(t, store.Enqueue(ctx, pendingOld))
	require.NoError(t, store.MarkSynced(ctx, "q1", now))
	require.NoError(t, store.MarkSynced(ctx, "q2", now))

	deleted, err := store.CleanupSynced(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted, "only the old synced record should be removed")

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, status.Pending, "pending records are never cleaned up")
	assert.EqualValues(t, 1, status.Synced)
}

func TestMarkUnknownRecord(t *testing.T) {
	store := setupStore(t)

	err := store.MarkSynced(context.Background(), "missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResources(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	res := &Resource{
		ID:        "res-1",
		Name:      "Malaria treatment protocol",
		Category:  "protocols",
		Path:      "resources/protocols/malaria.pdf",
		Language:  "hi-IN",
		SizeBytes: 20480,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.RegisterResource(ctx, res))

	require.NoError(t, store.TouchResource(ctx, "res-1"))
	require.NoError(t, store.TouchResource(ctx, "res-1"))

	list, err := store.ListResources(ctx, "protocols")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0].AccessCount)
	assert.NotNil(t, list[0].LastAccessed)

	require.NoError(t, store.DeleteResource(ctx, "res-1"))
	assert.ErrorIs(t, store.TouchResource(ctx, "res-1"), ErrNotFound)
}

func TestEnforceStorageBudgetInMemoryNoop(t *testing.T) {
	store := setupStore(t)

	deleted, err := store.EnforceStorageBudget(context.Background(), 1024)
	require.NoError(t, err)
	assert.Zero(t, deleted, "in-memory store reports zero size and skips cleanup")
}

func TestEnforceStorageBudgetPrunesSyncedRows(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(filepath.Join(t.TempDir(), "local.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	now := time.Now().UTC()
	payload := bytes.Repeat([]byte("x"), 4096)

	for i := 0; i < 150; i++ {
		rec := &model.SyncRecord{
			ID:         fmt.Sprintf("synced-%03d", i),
			RecordType: model.RecordTypeAssessment,
			RecordID:   fmt.Sprintf("a-%03d", i),
			Operation:  model.SyncOpCreate,
			Payload:    payload,
			Priority:   model.SyncPriority(model.RecordTypeAssessment),
			Status:     model.SyncStatusPending,
			CreatedAt:  now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.Enqueue(ctx, rec))
		require.NoError(t, store.MarkSynced(ctx, rec.ID, now))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Enqueue(ctx, &model.SyncRecord{
			ID:         fmt.Sprintf("pending-%d", i),
			RecordType: model.RecordTypePatient,
			RecordID:   fmt.Sprintf("p-%d", i),
			Operation:  model.SyncOpCreate,
			Payload:    payload,
			Priority:   model.SyncPriority(model.RecordTypePatient),
			Status:     model.SyncStatusPending,
			CreatedAt:  now,
		}))
	}

	before, err := store.FileSizeBytes()
	require.NoError(t, err)
	require.Positive(t, before)

	// A budget equal to the current size puts the file over the high
	// watermark, so cleanup must run.
	deleted, err := store.EnforceStorageBudget(ctx, before)
	require.NoError(t, err)
	assert.EqualValues(t, 150, deleted, "all synced rows are deletable")

	after, err := store.FileSizeBytes()
	require.NoError(t, err)
	assert.Less(t, after, before, "VACUUM returns space to the filesystem")

	status, err := store.Status(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, status.Pending, "pending rows survive cleanup")
	assert.Zero(t, status.Synced)
}

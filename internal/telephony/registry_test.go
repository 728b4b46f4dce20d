package telephony

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

type fakeSynth struct {
	err error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, language string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("audio:" + language + ":" + text), nil
}

func setupRegistry(t *testing.T) (*Registry, *localstore.Store, *metrics.InMemoryRecorder) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := localstore.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := metrics.NewInMemory()
	reg := NewRegistry(store, &fakeSynth{}, rec, logger, "/var/lib/asha/recordings", "hi-IN")
	return reg, store, rec
}

func TestStartCall(t *testing.T) {
	t.Parallel()
	reg, _, rec := setupRegistry(t)

	res, err := reg.StartCall(context.Background(), "+919876500001", "ta-IN")
	require.NoError(t, err)

	call := res.Call
	assert.NotEmpty(t, call.ID)
	assert.Equal(t, model.CallStatusActive, call.Status)
	assert.Equal(t, "ta-IN", call.Language)
	assert.Equal(t, model.CallIncoming, call.Direction)
	assert.Contains(t, call.RecordingPath, call.ID)
	assert.True(t, strings.HasSuffix(call.RecordingPath, ".wav"))

	require.Len(t, call.Transcript, 1)
	assert.Equal(t, "system", call.Transcript[0].Speaker)
	assert.Equal(t, WelcomeMessage("ta-IN"), call.Transcript[0].Text)
	assert.Equal(t, []byte("audio:ta-IN:"+res.Welcome), res.WelcomeAudio)

	assert.Len(t, reg.ActiveCalls(), 1)
	assert.Equal(t, uint64(1), rec.Snapshot().CallsStarted)
}

func TestStartCallFallsBackToDefaultLanguage(t *testing.T) {
	t.Parallel()
	reg, _, _ := setupRegistry(t)

	res, err := reg.StartCall(context.Background(), "+919876500002", "fr-FR")
	require.NoError(t, err)
	assert.Equal(t, "hi-IN", res.Call.Language)
	assert.Equal(t, WelcomeMessage("hi-IN"), res.Welcome)
}

func TestStartCallSynthesisFailureStillAnswers(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := localstore.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := NewRegistry(store, &fakeSynth{err: context.DeadlineExceeded}, metrics.NewInMemory(), logger, "/tmp", "hi-IN")
	res, err := reg.StartCall(context.Background(), "+919876500003", "hi-IN")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Welcome)
	assert.Nil(t, res.WelcomeAudio)
}

func TestAppendTranscriptAndAttachAssessment(t *testing.T) {
	t.Parallel()
	reg, _, _ := setupRegistry(t)

	res, err := reg.StartCall(context.Background(), "+919876500004", "hi-IN")
	require.NoError(t, err)

	updated, err := reg.AppendTranscript(res.Call.ID, "caller", "मुझे बुखार है")
	require.NoError(t, err)
	require.Len(t, updated.Transcript, 2)
	assert.Equal(t, "caller", updated.Transcript[1].Speaker)

	require.NoError(t, reg.AttachAssessment(res.Call.ID, "assessment-1"))
	got, err := reg.Get(res.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, "assessment-1", got.AssessmentID)

	_, err = reg.AppendTranscript("no-such-call", "caller", "hello")
	assert.ErrorIs(t, err, ErrCallNotFound)
	assert.ErrorIs(t, reg.AttachAssessment("no-such-call", "a"), ErrCallNotFound)
}

func TestEndCallQueuesUpload(t *testing.T) {
	t.Parallel()
	reg, store, rec := setupRegistry(t)
	ctx := context.Background()

	res, err := reg.StartCall(ctx, "+919876500005", "bn-IN")
	require.NoError(t, err)

	ended, err := reg.EndCall(ctx, res.Call.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)
	assert.False(t, ended.IsActive())

	assert.Empty(t, reg.ActiveCalls())
	history := reg.History(0)
	require.Len(t, history, 1)
	assert.Equal(t, res.Call.ID, history[0].ID)

	pending, err := store.PendingRecords(ctx, 10, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.RecordTypeCall, pending[0].RecordType)
	assert.Equal(t, res.Call.ID, pending[0].RecordID)
	assert.Equal(t, model.SyncPriority(model.RecordTypeCall), pending[0].Priority)

	assert.Equal(t, uint64(1), rec.Snapshot().CallsCompleted)

	_, err = reg.EndCall(ctx, res.Call.ID, false)
	assert.ErrorIs(t, err, ErrCallNotFound)
}

func TestEndCallFailed(t *testing.T) {
	t.Parallel()
	reg, _, _ := setupRegistry(t)
	ctx := context.Background()

	res, err := reg.StartCall(ctx, "+919876500006", "hi-IN")
	require.NoError(t, err)

	ended, err := reg.EndCall(ctx, res.Call.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusFailed, ended.Status)
}

func TestHistoryOrderAndLimit(t *testing.T) {
	t.Parallel()
	reg, _, _ := setupRegistry(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		res, err := reg.StartCall(ctx, "+91987650000", "hi-IN")
		require.NoError(t, err)
		_, err = reg.EndCall(ctx, res.Call.ID, false)
		require.NoError(t, err)
		ids = append(ids, res.Call.ID)
	}

	history := reg.History(2)
	require.Len(t, history, 2)
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, ids[1], history[1].ID)
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()
	reg, _, _ := setupRegistry(t)

	res, err := reg.StartCall(context.Background(), "+919876500007", "hi-IN")
	require.NoError(t, err)

	res.Call.Transcript[0].Text = "tampered"
	got, err := reg.Get(res.Call.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", got.Transcript[0].Text)
}

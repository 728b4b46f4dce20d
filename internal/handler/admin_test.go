package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashaconnect/ashaconnect/internal/config"
	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
	syncworker "github.com/ashaconnect/ashaconnect/internal/sync"
	"github.com/ashaconnect/ashaconnect/internal/telephony"
)

func newAdminFixture(t *testing.T) (*chi.Mux, *localstore.Store) {
	t.Helper()

	store, err := localstore.Open(":memory:", discardLogger())
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	worker := syncworker.NewWorker(store, nil, discardLogger(), metrics.NewInMemory(), syncworker.Options{})
	registry := telephony.NewRegistry(store, nil, metrics.NewInMemory(), discardLogger(), t.TempDir(), "hi-IN")

	cfg := &config.Config{
		AppName:    "asha-connect",
		AppVersion: "1.0.0",
		AppEnv:     "test",
	}

	h := NewAdminHandler(nil, worker, store, registry, nil, nil, cfg, discardLogger())

	r := chi.NewRouter()
	r.Get("/admin/sync/status", h.SyncStatus)
	r.Post("/admin/sync/trigger", h.TriggerSync)
	r.Post("/admin/sync/retry", h.RetrySync)
	r.Get("/admin/system", h.SystemInfo)
	r.Get("/admin/resources", h.Resources)
	r.Get("/admin/reports/usage", h.UsageReport)
	r.Get("/admin/reports/referrals", h.ReferralReport)
	return r, store
}

func TestAdminHandler_SyncStatus(t *testing.T) {
	router, store := newAdminFixture(t)

	rec := &model.SyncRecord{
		RecordType: model.RecordTypePatient,
		RecordID:   "p1",
		Operation:  model.SyncOpCreate,
		Payload:    []byte(`{"id":"p1"}`),
		Priority:   model.SyncPriority(model.RecordTypePatient),
		Status:     model.SyncStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.Enqueue(context.Background(), rec); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/sync/status", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}

	var resp dto.SyncStatusResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Pending != 1 {
		t.Errorf("expected 1 pending record, got %d", resp.Pending)
	}
}

func TestAdminHandler_TriggerSync(t *testing.T) {
	router, _ := newAdminFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/sync/trigger", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected status 202, got %d", rec.Code)
	}
}

func TestAdminHandler_RetrySync_Empty(t *testing.T) {
	router, _ := newAdminFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/sync/retry", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.SyncRetryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Requeued != 0 {
		t.Errorf("expected 0 requeued, got %d", resp.Requeued)
	}
}

func TestAdminHandler_SystemInfo(t *testing.T) {
	router, _ := newAdminFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/system", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.SystemInfoResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Name != "asha-connect" {
		t.Errorf("expected name 'asha-connect', got %s", resp.Name)
	}
	if resp.SupportedLanguages != 10 {
		t.Errorf("expected 10 supported languages, got %d", resp.SupportedLanguages)
	}
	if resp.ModelAvailable {
		t.Error("expected model_available false with no model configured")
	}
}

func TestAdminHandler_Resources(t *testing.T) {
	router, store := newAdminFixture(t)

	res := &localstore.Resource{
		ID:        "recording:c1",
		Name:      "c1.wav",
		Category:  "recordings",
		Path:      "/data/recordings/c1.wav",
		Language:  "hi-IN",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.RegisterResource(context.Background(), res); err != nil {
		t.Fatalf("register resource: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/resources?category=recordings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Resources []*localstore.Resource `json:"resources"`
		Count     int                    `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 resource, got %d", resp.Count)
	}
	if resp.Resources[0].ID != "recording:c1" {
		t.Errorf("unexpected resource: %+v", resp.Resources[0])
	}
}

func TestAdminHandler_UsageReport_NotConfigured(t *testing.T) {
	router, _ := newAdminFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports/usage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

func TestAdminHandler_ReferralReport_RequiresSymptoms(t *testing.T) {
	router, _ := newAdminFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports/referrals?symptoms=,%20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "MISSING_SYMPTOMS" {
		t.Errorf("expected code MISSING_SYMPTOMS, got %s", resp.Code)
	}
}

func TestAdminHandler_ReferralReport_NotConfigured(t *testing.T) {
	router, _ := newAdminFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/reports/referrals?symptoms=fever", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

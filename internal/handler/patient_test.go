package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/handler/dto"
	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/service"
)

type noopTrigger struct{}

func (noopTrigger) TriggerNow() {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPatientFixture(t *testing.T) (*PatientHandler, *chi.Mux) {
	t.Helper()

	store, err := localstore.Open(":memory:", discardLogger())
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := service.NewPatientService(store, noopTrigger{}, discardLogger())
	h := NewPatientHandler(svc, discardLogger())

	r := chi.NewRouter()
	r.Post("/patients", h.Register)
	r.Get("/patients", h.List)
	r.Get("/patients/{id}", h.Get)
	r.Patch("/patients/{id}", h.Update)
	return h, r
}

func asWorker(req *http.Request) *http.Request {
	ctx := auth.ContextWithAuth(req.Context(), &model.AuthContext{
		UserID:   "worker-1",
		Username: "asha1",
		Role:     model.RoleASHA,
	})
	return req.WithContext(ctx)
}

func registerPatient(t *testing.T, router *chi.Mux, body string) *dto.PatientResponse {
	t.Helper()

	req := asWorker(httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte(body))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.PatientResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &resp
}

func TestPatientHandler_Register(t *testing.T) {
	_, router := newPatientFixture(t)

	resp := registerPatient(t, router, `{
		"name": "Sunita Devi",
		"age": 28,
		"gender": "female",
		"village": "Rampur",
		"pregnant": true
	}`)

	if resp.ID == "" {
		t.Error("expected a generated patient ID")
	}
	if resp.RegisteredBy != "worker-1" {
		t.Errorf("expected registered_by 'worker-1', got %s", resp.RegisteredBy)
	}
	if !resp.Vulnerable {
		t.Error("expected a pregnant patient to be flagged vulnerable")
	}
}

func TestPatientHandler_Register_InvalidGender(t *testing.T) {
	_, router := newPatientFixture(t)

	body := `{"name": "Ram", "age": 40, "gender": "unknown", "village": "Rampur"}`
	req := asWorker(httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte(body))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestPatientHandler_Register_InvalidJSON(t *testing.T) {
	_, router := newPatientFixture(t)

	req := asWorker(httptest.NewRequest(http.MethodPost, "/patients", bytes.NewReader([]byte("{not json"))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != "INVALID_JSON" {
		t.Errorf("expected code INVALID_JSON, got %s", resp.Code)
	}
}

func TestPatientHandler_Get(t *testing.T) {
	_, router := newPatientFixture(t)

	created := registerPatient(t, router, `{"name": "Mohan", "age": 70, "gender": "male", "village": "Bishanpur"}`)

	req := asWorker(httptest.NewRequest(http.MethodGet, "/patients/"+created.ID, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.PatientResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Name != "Mohan" {
		t.Errorf("expected name 'Mohan', got %s", resp.Name)
	}
	if !resp.Vulnerable {
		t.Error("expected an elderly patient to be flagged vulnerable")
	}
}

func TestPatientHandler_Get_NotFound(t *testing.T) {
	_, router := newPatientFixture(t)

	req := asWorker(httptest.NewRequest(http.MethodGet, "/patients/missing", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestPatientHandler_List_FilterByVillage(t *testing.T) {
	_, router := newPatientFixture(t)

	registerPatient(t, router, `{"name": "A", "age": 30, "gender": "female", "village": "Rampur"}`)
	registerPatient(t, router, `{"name": "B", "age": 35, "gender": "male", "village": "Bishanpur"}`)

	req := asWorker(httptest.NewRequest(http.MethodGet, "/patients?village=Rampur", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Patients []*dto.PatientResponse `json:"patients"`
		Count    int                    `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected 1 patient, got %d", resp.Count)
	}
	if resp.Patients[0].Village != "Rampur" {
		t.Errorf("expected village Rampur, got %s", resp.Patients[0].Village)
	}
}

func TestPatientHandler_Update(t *testing.T) {
	_, router := newPatientFixture(t)

	created := registerPatient(t, router, `{"name": "Gita", "age": 25, "gender": "female", "village": "Rampur"}`)

	body := `{"village": "Bishanpur", "pregnant": true}`
	req := asWorker(httptest.NewRequest(http.MethodPatch, "/patients/"+created.ID, bytes.NewReader([]byte(body))))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.PatientResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Village != "Bishanpur" {
		t.Errorf("expected updated village, got %s", resp.Village)
	}
	if !resp.Pregnant {
		t.Error("expected pregnant flag to be updated")
	}
}

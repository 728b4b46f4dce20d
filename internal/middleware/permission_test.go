package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashaconnect/ashaconnect/internal/auth"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(role model.Role) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	authCtx := &model.AuthContext{UserID: "u1", Username: "asha1", Role: role}
	return req.WithContext(auth.ContextWithAuth(req.Context(), authCtx))
}

func TestRequirePermission(t *testing.T) {
	testCases := []struct {
		name       string
		role       model.Role
		required   string
		wantStatus int
	}{
		{
			name:       "asha can assess",
			role:       model.RoleASHA,
			required:   auth.PermHealthAssess,
			wantStatus: http.StatusOK,
		},
		{
			name:       "asha cannot view reports",
			role:       model.RoleASHA,
			required:   auth.PermReportView,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "supervisor can view reports",
			role:       model.RoleSupervisor,
			required:   auth.PermReportView,
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin wildcard grants everything",
			role:       model.RoleAdmin,
			required:   auth.PermPatientEdit,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := RequirePermission(tc.required)(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestAs(tc.role))

			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRequirePermission_AnyOf(t *testing.T) {
	handler := RequirePermission(auth.PermReportView, auth.PermHealthAssess)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(model.RoleASHA))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequirePermission_Unauthenticated(t *testing.T) {
	handler := RequirePermission(auth.PermHealthAssess)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(model.RoleSupervisor, model.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(model.RoleSupervisor))
	if rec.Code != http.StatusOK {
		t.Errorf("supervisor status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAs(model.RoleASHA))
	if rec.Code != http.StatusForbidden {
		t.Errorf("asha status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

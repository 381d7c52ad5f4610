package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithRole(role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	authCtx := &model.AuthContext{UserID: "u1", Username: "tester", Role: role}
	return req.WithContext(auth.ContextWithAuth(req.Context(), authCtx))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		middleware func(http.Handler) http.Handler
		role       string
		wantStatus int
	}{
		{"librarian passes librarian gate", RequireLibrarian(), model.RoleLibrarian, http.StatusOK},
		{"admin passes librarian gate", RequireLibrarian(), model.RoleAdmin, http.StatusOK},
		{"reader blocked from librarian gate", RequireLibrarian(), model.RoleReader, http.StatusForbidden},
		{"admin passes admin gate", RequireAdmin(), model.RoleAdmin, http.StatusOK},
		{"librarian blocked from admin gate", RequireAdmin(), model.RoleLibrarian, http.StatusForbidden},
		{"reader blocked from admin gate", RequireAdmin(), model.RoleReader, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.middleware(okHandler()).ServeHTTP(rec, requestWithRole(tt.role))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRole_NoAuthContext(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)

	RequireLibrarian()(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

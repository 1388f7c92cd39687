package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deepugami/mini-crm/internal/platform/auth"
	"github.com/deepugami/mini-crm/internal/platform/config"
)

func TestAuthMiddleware(t *testing.T) {
	tokenSvc := auth.NewTokenService(config.AuthConfig{Token: "secret"})
	mid := NewAuthMiddleware(tokenSvc)

	var called bool
	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
	}{
		{"missing header", "", http.StatusUnauthorized, false},
		{"malformed header", "secret", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized, false},
		{"wrong token", "Bearer nope", http.StatusUnauthorized, false},
		{"valid token", "Bearer secret", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false

			req := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if called != tt.wantCalled {
				t.Errorf("expected called=%v, got %v", tt.wantCalled, called)
			}
		})
	}
}

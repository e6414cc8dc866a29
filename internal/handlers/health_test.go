package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		method     string
		checks     map[string]Pinger
		wantStatus int
		wantBody   HealthResponse
	}{
		{
			name:       "healthy",
			method:     http.MethodGet,
			checks:     map[string]Pinger{"history_store": ok},
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "healthy", Checks: map[string]string{"history_store": "ok"}},
		},
		{
			name:       "history store down",
			method:     http.MethodGet,
			checks:     map[string]Pinger{"history_store": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody: HealthResponse{
				Status: "unhealthy",
				Checks: map[string]string{"history_store": "error"},
				Issues: []string{"history_store_unavailable"},
			},
		},
		{
			name:       "no checks",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "healthy", Checks: map[string]string{}},
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks)
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.method != http.MethodGet {
				return
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Status != tt.wantBody.Status || resp.Timestamp == "" {
				t.Errorf("response = %+v", resp)
			}
			for name, want := range tt.wantBody.Checks {
				if resp.Checks[name] != want {
					t.Errorf("check %s = %q, want %q", name, resp.Checks[name], want)
				}
			}
			if len(resp.Issues) != len(tt.wantBody.Issues) {
				t.Errorf("issues = %v, want %v", resp.Issues, tt.wantBody.Issues)
			}
		})
	}
}

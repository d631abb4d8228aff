package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func TestLoggingMiddlewareFields(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))

	tests := []struct {
		name      string
		target    string
		requestID any
		contains  []string
		excludes  []string
	}{
		{
			name:      "health probe is quiet",
			target:    "/health",
			requestID: "req-1",
			excludes:  []string{"HTTP request"},
		},
		{
			name:      "metrics scrape is quiet",
			target:    "/metrics",
			requestID: "req-2",
			excludes:  []string{"HTTP request"},
		},
		{
			name:      "lookup without query",
			target:    "/systems",
			requestID: "req-3",
			contains:  []string{"HTTP request", "path=/systems", "request_id=req-3", "status_code=200", "bytes_written=2"},
			excludes:  []string{"query="},
		},
		{
			name:      "lookup with query",
			target:    "/drugs?systemId=10",
			requestID: "req-4",
			contains:  []string{"path=/drugs", `query="systemId=10"`},
		},
		{
			name:      "non-string request id",
			target:    "/dosages?drugId=7",
			requestID: 12345,
			contains:  []string{"request_id=unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logOutput.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, tt.requestID))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", rr.Code)
			}
			logs := logOutput.String()
			for _, want := range tt.contains {
				if !strings.Contains(logs, want) {
					t.Errorf("Expected log to contain %q, got: %s", want, logs)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(logs, unwanted) {
					t.Errorf("Expected log without %q, got: %s", unwanted, logs)
				}
			}
		})
	}
}

func TestLoggingMiddlewareLevelsAndRoute(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(logger))
	r.Post("/seed/{bodySystem}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "bodySystem") == "dermatology" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	testCases := []struct {
		method string
		path   string
		level  string
	}{
		{http.MethodPost, "/seed/neurology", "level=INFO"},
		{http.MethodPost, "/seed/dermatology", "level=WARN"},
		{http.MethodGet, "/boom", "level=ERROR"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			logOutput.Reset()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))

			logs := logOutput.String()
			if !strings.Contains(logs, tc.level) {
				t.Errorf("Expected %s, got: %s", tc.level, logs)
			}
			if strings.HasPrefix(tc.path, "/seed/") && !strings.Contains(logs, "route=/seed/{bodySystem}") {
				t.Errorf("Expected route pattern in log, got: %s", logs)
			}
			if strings.Contains(logs, "request_id=unknown") {
				t.Errorf("Expected request id from chi middleware, got: %s", logs)
			}
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/ebogdum/jfsio/auth"
)

func okHandler(t *testing.T, wantClient bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := GetClientID(r.Context()); ok != wantClient || (ok && id == "") {
			t.Errorf("GetClientID = %q, %v", id, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestV1AuthMiddleware(t *testing.T) {
	authenticator := auth.NewAPIKeyAuthenticator([]string{"secret"})
	handler := V1AuthMiddleware(authenticator, zaptest.NewLogger(t))(okHandler(t, true))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad key", "Bearer wrong", http.StatusUnauthorized},
		{"bearer", "Bearer secret", http.StatusNoContent},
		{"bare key", "secret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/stat/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("error response is not JSON")
			}
		})
	}
}

func TestV1RateLimitMiddleware(t *testing.T) {
	logger := zaptest.NewLogger(t)

	unlimited := V1RateLimitMiddleware(nil, logger)(okHandler(t, false))
	for range 5 {
		rec := httptest.NewRecorder()
		unlimited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("nil limiter rejected a request: %d", rec.Code)
		}
	}

	limited := V1RateLimitMiddleware(rate.NewLimiter(rate.Every(time.Hour), 2), logger)(okHandler(t, false))
	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestV1RequestIDMiddleware(t *testing.T) {
	var seen string
	handler := V1RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("request id %q, header %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

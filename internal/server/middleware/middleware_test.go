package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestSizeLimits(t *testing.T) {
	router := chi.NewRouter()

	route := "/envelopes"

	maxRequestSize := int64(64)

	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(maxRequestSize))
		r.Post(route, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		bodySize int64
		wantCode int
	}{
		{"normal request", maxRequestSize, http.StatusOK},
		{"oversized request", maxRequestSize * 2, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", int(tt.bodySize))
			req := httptest.NewRequest("POST", route, bytes.NewReader([]byte(body)))
			req.ContentLength = tt.bodySize

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}

			// Verify header is always set
			if header := rr.Header().Get("X-Max-Request-Size"); header == "" {
				t.Error("X-Max-Request-Size header not set")
			}
		})
	}
}

func TestRateLimitIsEnabled(t *testing.T) {
	router := chi.NewRouter()
	router.Use(RateLimit(10, 5))
	router.Get("/envelopes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Requests within the burst succeed.
	for i := range 5 {
		req := httptest.NewRequest("GET", "/envelopes", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	// The burst is exhausted, so the next request is throttled.
	req := httptest.NewRequest("GET", "/envelopes", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	router := chi.NewRouter()
	router.Use(RateLimit(0, 0))
	router.Get("/envelopes", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := range 50 {
		req := httptest.NewRequest("GET", "/envelopes", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("request %d throttled with rate limiting disabled", i+1)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantHSTS    bool
	}{
		{"dev", "dev", false},
		{"prod", "prod", true},
		{"staging", "staging", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(SecurityHeaders(tt.environment))
			router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/health", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("got X-Content-Type-Options %q, want nosniff", got)
			}
			if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
				t.Errorf("got X-Frame-Options %q, want DENY", got)
			}

			hasHSTS := rr.Header().Get("Strict-Transport-Security") != ""
			if hasHSTS != tt.wantHSTS {
				t.Errorf("HSTS header present=%v, want %v in %s", hasHSTS, tt.wantHSTS, tt.environment)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		origin         string
		method         string
		wantCode       int
		wantAllow      string
	}{
		{
			name:           "allowed origin",
			allowedOrigins: []string{"https://app.example"},
			origin:         "https://app.example",
			method:         "GET",
			wantCode:       http.StatusOK,
			wantAllow:      "https://app.example",
		},
		{
			name:           "disallowed origin",
			allowedOrigins: []string{"https://app.example"},
			origin:         "https://evil.example",
			method:         "GET",
			wantCode:       http.StatusOK,
			wantAllow:      "",
		},
		{
			name:           "wildcard",
			allowedOrigins: []string{"*"},
			origin:         "https://anything.example",
			method:         "GET",
			wantCode:       http.StatusOK,
			wantAllow:      "https://anything.example",
		},
		{
			name:           "preflight",
			allowedOrigins: []string{"https://app.example"},
			origin:         "https://app.example",
			method:         "OPTIONS",
			wantCode:       http.StatusNoContent,
			wantAllow:      "https://app.example",
		},
		{
			name:           "no origin header",
			allowedOrigins: []string{"https://app.example"},
			origin:         "",
			method:         "GET",
			wantCode:       http.StatusOK,
			wantAllow:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(CORS(tt.allowedOrigins))
			router.Get("/envelopes", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/envelopes", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("got Access-Control-Allow-Origin %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

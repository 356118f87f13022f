package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		name   string
		window time.Duration
		want   int
	}{
		{name: "zero", window: 0, want: 1},
		{name: "negative", window: -time.Second, want: 1},
		{name: "fractional_rounds_up", window: 1500 * time.Millisecond, want: 2},
		{name: "whole_second", window: time.Second, want: 1},
		{name: "minute", window: time.Minute, want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryAfterSeconds(tt.window); got != tt.want {
				t.Fatalf("retryAfterSeconds(%s) = %d, want %d", tt.window, got, tt.want)
			}
		})
	}
}

func TestRateLimitRejectsWithEnvelope(t *testing.T) {
	handler := rateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, last.Code, http.StatusOK)
		}
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", last.Code, http.StatusTooManyRequests)
	}
	if got := last.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q, want %q", got, "60")
	}
	env := decodeEnvelope(t, last)
	if env.Success || env.Code != "RATE_LIMITED" {
		t.Fatalf("envelope = %+v, want RATE_LIMITED failure", env)
	}

	other := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	other.RemoteAddr = "198.51.100.9:4000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Fatalf("other client status = %d, want %d", rr.Code, http.StatusOK)
	}
}

package httpx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter(2, time.Minute)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow(context.Background(), "a"); !ok {
			t.Fatalf("request %d should pass", i)
		}
	}
	if ok, _ := rl.Allow(context.Background(), "a"); ok {
		t.Fatal("third request in the window should be limited")
	}
	if ok, _ := rl.Allow(context.Background(), "b"); !ok {
		t.Fatal("other keys have their own window")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := rl.Allow(context.Background(), "a"); !ok {
		t.Fatal("window should reset")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitFailOpenAndClosed(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	open := RateLimit(failingLimiter{}, nil, nil, true)(ok)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("fail-open should serve, got %d", rec.Code)
	}

	closed := RateLimit(failingLimiter{}, nil, nil, false)(ok)
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed should 503, got %d", rec.Code)
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected caller id to be kept, got %q", seen)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("expected generated id, got %q", seen)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://book.example"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "X-Business-Id"},
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) }))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/public/book", nil)
	req.Header.Set("Origin", "https://book.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://book.example" {
		t.Fatalf("missing allow-origin header")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow-origin for unknown origin")
	}
}

func TestWithRecoverReturns500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map") }),
		WithRequestID, WithRecover(logger))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestUsableRequestID(t *testing.T) {
	if !UsableRequestID("abc-123") {
		t.Fatal("expected plain id to be usable")
	}
	for _, id := range []string{"", "has space", "new\nline", strings.Repeat("a", 129)} {
		if UsableRequestID(id) {
			t.Fatalf("expected %q to be rejected", id)
		}
	}
	if got := RequestIDOr("bad id"); got == "bad id" || got == "" {
		t.Fatalf("expected a fresh id, got %q", got)
	}
}

func TestAccessLogLevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := WithAccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability/slots", nil)
	req.Header.Set("X-Business-Id", "biz-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{"level=WARN", "status=409", "business_id=biz-1", "path=/api/v1/availability/slots"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(rps float64, burst int) *Limiter {
	rl := NewLimiter(Config{
		RequestsPerSecond: rps,
		Burst:             burst,
		CleanupInterval:   time.Hour,
		StaleAfter:        time.Hour,
	})
	return rl
}

func TestAllowBurstThenLimit(t *testing.T) {
	rl := newTestLimiter(1, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request beyond burst should be denied")
	}

	m := rl.GetMetrics()
	if m.TotalHits != 1 {
		t.Errorf("TotalHits = %d, want 1", m.TotalHits)
	}
	if m.ClientCount != 1 {
		t.Errorf("ClientCount = %d, want 1", m.ClientCount)
	}
}

func TestAllowIsolatesClients(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client should be exhausted")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client should have its own bucket")
	}
	if rl.ActiveClients() != 2 {
		t.Errorf("ActiveClients = %d, want 2", rl.ActiveClients())
	}
}

func TestCleanupDropsStaleClients(t *testing.T) {
	rl := newTestLimiter(10, 10)
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()

	if rl.ActiveClients() != 1 {
		t.Fatalf("ActiveClients = %d, want 1 after cleanup", rl.ActiveClients())
	}
}

func TestMiddlewareRejectsWithRetryAfter(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()

	extractIP := func(r *http.Request) string { return "10.0.0.9" }
	handler := rl.Middleware(extractIP, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d, want 204", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header on limited response")
	}
}

func TestMiddlewareCustomOnLimit(t *testing.T) {
	rl := newTestLimiter(1, 1)
	defer rl.Stop()

	extractIP := func(r *http.Request) string { return "10.0.0.9" }
	handler := rl.Middleware(extractIP, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("custom onLimit status = %d, want 503", rr.Code)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := newTestLimiter(1, 1)
	rl.Stop()
	rl.Stop()
}

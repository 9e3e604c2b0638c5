package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func rateLimitedHandler(cfg RateLimitConfig) (echo.HandlerFunc, *echo.Echo) {
	e := echo.New()
	handler := RateLimit(cfg)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	return handler, e
}

func doRequest(t *testing.T, e *echo.Echo, handler echo.HandlerFunc, realIP string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if realIP != "" {
		req.Header.Set(echo.HeaderXRealIP, realIP)
	}
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func TestRateLimit_WithinBurst(t *testing.T) {
	handler, e := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		rec := doRequest(t, e, handler, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit 10, got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExhaustedBucketAnswers429(t *testing.T) {
	handler, e := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		if rec := doRequest(t, e, handler, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	rec := doRequest(t, e, handler, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	retryAfter := rec.Header().Get("Retry-After")
	if retryAfter == "" {
		t.Fatal("expected Retry-After header")
	}
	if v, err := strconv.Atoi(retryAfter); err != nil || v < 1 {
		t.Errorf("expected Retry-After >= 1, got %q", retryAfter)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", got)
	}
}

func TestRateLimit_BucketsAreKeyedByClientIP(t *testing.T) {
	handler, e := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	if rec := doRequest(t, e, handler, "10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("10.0.0.1 first request: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(t, e, handler, "10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("10.0.0.1 second request: expected 429, got %d", rec.Code)
	}
	if rec := doRequest(t, e, handler, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("10.0.0.2 first request: expected own bucket, got %d", rec.Code)
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 {
		t.Errorf("expected RequestsPerSecond 100, got %f", cfg.RequestsPerSecond)
	}
	if cfg.BurstSize != 200 {
		t.Errorf("expected BurstSize 200, got %d", cfg.BurstSize)
	}
}

func TestTokenBucket_RetryAfterWithZeroRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestRateLimiterStore_ReusesBucketPerKey(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	b1 := store.getBucket("key1")
	if b1 == nil {
		t.Fatal("expected non-nil bucket")
	}
	if b2 := store.getBucket("key1"); b1 != b2 {
		t.Error("expected same bucket instance for same key")
	}
	if b3 := store.getBucket("key2"); b1 == b3 {
		t.Error("expected different bucket for different key")
	}
}

func TestRateLimiterStore_SweepEvictsIdleBuckets(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	stale := store.getBucket("stale")
	stale.mu.Lock()
	stale.lastRefill = time.Now().Add(-time.Hour)
	stale.mu.Unlock()
	store.getBucket("fresh").allow()

	store.sweep(bucketIdleTTL)

	store.mu.RLock()
	defer store.mu.RUnlock()
	if _, ok := store.buckets["stale"]; ok {
		t.Error("expected stale bucket evicted")
	}
	if _, ok := store.buckets["fresh"]; !ok {
		t.Error("expected fresh bucket kept")
	}
}

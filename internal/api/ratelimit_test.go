package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_RefillsOverWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newRateLimiter("test", 3, 15*time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.Zero(t, l.reserve("10.0.0.1"))
	}
	wait := l.reserve("10.0.0.1")
	assert.InDelta(t, (5 * time.Minute).Seconds(), wait.Seconds(), 1)

	assert.Zero(t, l.reserve("10.0.0.2"), "clients are limited independently")

	now = now.Add(5 * time.Minute)
	assert.Zero(t, l.reserve("10.0.0.1"))
}

func TestRateLimiter_ForgetsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newRateLimiter("test", 1, time.Minute)
	l.now = func() time.Time { return now }

	l.reserve("a")
	l.reserve("b")
	assert.Len(t, l.clients, 2)

	now = now.Add(2 * time.Minute)
	l.reserve("b")
	assert.Len(t, l.clients, 1)
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := newRateLimiter("test", 1, time.Hour)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	assert.NoError(t, err)
	assert.InDelta(t, 3600, retry, 1)
}

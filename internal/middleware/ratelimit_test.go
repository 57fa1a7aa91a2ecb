package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(max int, window time.Duration) (*AttemptLimiter, *stepClock) {
	clock := &stepClock{now: time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)}
	rl := NewAttemptLimiter(max, window)
	rl.now = clock.Now
	return rl, clock
}

func TestAttemptLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)
	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		if !rl.Allow(ip) {
			t.Errorf("Attempt %d should be allowed", i+1)
		}
	}

	if rl.Allow(ip) {
		t.Error("4th attempt should be blocked")
	}

	if !rl.Allow("192.168.1.2") {
		t.Error("Different IP should be allowed")
	}
}

func TestAttemptLimiter_SlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	ip := "192.168.1.1"

	assert.True(t, rl.Allow(ip))
	clock.Advance(30 * time.Second)
	assert.True(t, rl.Allow(ip))
	assert.False(t, rl.Allow(ip))

	assert.Equal(t, 30*time.Second, rl.RetryAfter(ip))

	clock.Advance(31 * time.Second)
	assert.True(t, rl.Allow(ip), "first attempt left the window")
	assert.False(t, rl.Allow(ip))
}

func TestAttemptLimiter_RetryAfterUnderLimit(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)

	assert.Equal(t, time.Duration(0), rl.RetryAfter("10.0.0.1"))
	rl.Allow("10.0.0.1")
	assert.Equal(t, time.Duration(0), rl.RetryAfter("10.0.0.1"))
}

func TestAttemptLimiter_Cleanup(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Minute)
	rl.Allow("192.168.1.1")
	assert.Equal(t, 1, rl.Size())

	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Cleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rl.Size() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRateLimit_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)

	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/tickets/check-in", nil)
		req.RemoteAddr = ip + ":5000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusOK, request("192.168.1.1").Code)
	assert.Equal(t, http.StatusOK, request("192.168.1.1").Code)

	rr := request("192.168.1.1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rr).Code)

	assert.Equal(t, http.StatusOK, request("192.168.1.2").Code)
}

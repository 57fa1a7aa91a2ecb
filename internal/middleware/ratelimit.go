package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// AttemptLimiter is a sliding-window limiter keyed by client IP. It guards
// the check-in endpoints against validation code guessing.
type AttemptLimiter struct {
	attempts    map[string][]time.Time
	mutex       sync.Mutex
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewAttemptLimiter creates a limiter allowing maxAttempts per window
func NewAttemptLimiter(maxAttempts int, window time.Duration) *AttemptLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	if window <= 0 {
		window = time.Minute
	}

	return &AttemptLimiter{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Rejected attempts are not recorded.
func (rl *AttemptLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	valid := rl.prune(key, now)
	if len(valid) >= rl.maxAttempts {
		return false
	}

	rl.attempts[key] = append(valid, now)
	return true
}

// RetryAfter returns the time until key may try again
func (rl *AttemptLimiter) RetryAfter(key string) time.Duration {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	valid := rl.prune(key, now)
	if len(valid) < rl.maxAttempts {
		return 0
	}

	// the oldest attempt in the window frees the next slot
	return valid[0].Add(rl.window).Sub(now)
}

// prune drops attempts older than the window. Callers hold the mutex.
func (rl *AttemptLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	attempts := rl.attempts[key]

	i := 0
	for i < len(attempts) && !attempts[i].After(cutoff) {
		i++
	}
	valid := attempts[i:]

	if len(valid) == 0 {
		delete(rl.attempts, key)
		return nil
	}
	rl.attempts[key] = valid
	return valid
}

// Cleanup removes expired entries every interval until ctx is done
func (rl *AttemptLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mutex.Lock()
			now := rl.now()
			for key := range rl.attempts {
				rl.prune(key, now)
			}
			rl.mutex.Unlock()
		}
	}
}

// Size returns the number of tracked clients
func (rl *AttemptLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.attempts)
}

// RateLimit rejects requests from clients over the limiter's budget
func RateLimit(limiter *AttemptLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if !limiter.Allow(ip) {
				retry := limiter.RetryAfter(ip)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				writeError(w, http.StatusTooManyRequests,
					fmt.Sprintf("Too many attempts. Please try again in %s.", retry.Round(time.Second)),
					"RATE_LIMITED")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

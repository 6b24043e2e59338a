package httpx

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimitStore keeps one token bucket per key in process memory.
type MemoryLimitStore struct {
	limiters sync.Map // map[string]*rate.Limiter
	mu       sync.Mutex
	// Cleanup old limiters periodically
	lastCleanup time.Time
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{lastCleanup: time.Now()}
}

// Allow implements LimitStore.
func (s *MemoryLimitStore) Allow(_ context.Context, key string, config RateLimitConfig) (bool, time.Duration, error) {
	limiter := s.getLimiter(key, config)
	if limiter.Allow() {
		return true, 0, nil
	}

	// Calculate retry-after (when the next token will be available)
	reservation := limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel() // Don't actually consume the reservation
	return false, delay, nil
}

// getLimiter retrieves or creates a rate limiter for the given key
func (s *MemoryLimitStore) getLimiter(key string, config RateLimitConfig) *rate.Limiter {
	// Fast path: limiter already exists
	if limiter, ok := s.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	// Calculate rate per second from requests per window
	ratePerSecond := float64(config.RequestsPerWindow) / config.Window.Seconds()
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), config.Burst)
	actual, _ := s.limiters.LoadOrStore(key, limiter)

	// Periodic cleanup to prevent memory leak
	s.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup removes old limiters that haven't been used recently
// This prevents memory leaks from accumulating limiters for ephemeral keys
func (s *MemoryLimitStore) maybeCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only cleanup once every 5 minutes
	if time.Since(s.lastCleanup) < 5*time.Minute {
		return
	}

	s.lastCleanup = time.Now()

	// A limiter holding its full burst has been idle.
	s.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(limiter.Burst()) {
			s.limiters.Delete(key)
		}
		return true
	})
}

package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	bucketIdleTTL   = 1 * time.Hour
	cleanupInterval = 30 * time.Minute
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key. Each bucket holds up to
// capacity tokens and refills continuously at capacity per window.
type RateLimiter struct {
	mu       sync.Mutex
	capacity int
	every    rate.Limit
	buckets  map[string]*clientBucket
	now      func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := &RateLimiter{
		capacity:    capacity,
		every:       rate.Every(window / time.Duration(capacity)),
		buckets:     make(map[string]*clientBucket),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (r *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stopCleanup:
			return
		}
	}
}

// cleanup forgets buckets idle long enough to be full again anyway.
func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, bucket := range r.buckets {
		if now.Sub(bucket.lastSeen) > bucketIdleTTL {
			delete(r.buckets, key)
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
}

// Allow takes a token from key's bucket. When the bucket is empty it returns
// false and how long until a token is available.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	bucket, ok := r.buckets[key]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(r.every, r.capacity)}
		r.buckets[key] = bucket
	}
	bucket.lastSeen = now

	if tokens := bucket.limiter.TokensAt(now); tokens < 1 {
		wait := (1 - tokens) / float64(r.every)
		return false, time.Duration(wait * float64(time.Second))
	}
	return bucket.limiter.AllowN(now, 1), 0
}

package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/omnichat/omnichat/internal/ratelimit/store"
)

// minSweepInterval bounds how often the background sweep runs.
const minSweepInterval = 10 * time.Second

// bucket tracks one key's count within its current window. The window
// starts at the key's first request, not at an aligned boundary.
type bucket struct {
	count       int
	windowStart time.Time
}

// FixedWindowLimiter implements fixed-window rate limiting. With a nil
// store it keeps buckets in process memory under a single lock, so the
// read-check-increment for a key is one atomic critical section. With a
// store it delegates counting to the backend (Redis in production), which
// makes the limit shared across replicas.
type FixedWindowLimiter struct {
	maxRequests int
	window      time.Duration
	store       store.Store
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	sweep     *time.Ticker
	done      chan struct{}
	destroyed sync.Once
}

// FixedWindowOption is a functional option for the limiter.
type FixedWindowOption func(*FixedWindowLimiter)

// WithStore sets a distributed counting backend.
func WithStore(s store.Store) FixedWindowOption {
	return func(l *FixedWindowLimiter) {
		l.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) FixedWindowOption {
	return func(l *FixedWindowLimiter) {
		l.logger = logger
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) FixedWindowOption {
	return func(l *FixedWindowLimiter) {
		l.now = now
	}
}

// NewFixedWindowLimiter creates a fixed window rate limiter and starts its
// eviction sweep. Buckets idle for two full windows are swept so the key
// space cannot grow without bound; the sweep runs once per window with a
// 10 second floor. Call Destroy to stop the sweep.
func NewFixedWindowLimiter(cfg Config, opts ...FixedWindowOption) *FixedWindowLimiter {
	l := &FixedWindowLimiter{
		maxRequests: cfg.MaxRequests,
		window:      cfg.Window,
		logger:      zap.NewNop(),
		now:         time.Now,
		buckets:     make(map[string]*bucket),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	interval := l.window
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	l.sweep = time.NewTicker(interval)
	go l.runSweep()

	return l
}

// Allow implements Limiter.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if l.store == nil {
		return l.allowLocal(key), nil
	}
	return l.allowDistributed(ctx, key)
}

// allowLocal performs the check against in-memory buckets. The whole
// read-check-increment sequence holds the lock, so concurrent callers for
// one key can never lose an update.
func (l *FixedWindowLimiter) allowLocal(key string) *Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		b = &bucket{count: 1, windowStart: now}
		l.buckets[key] = b
	} else {
		b.count++
	}

	allowed := b.count <= l.maxRequests
	return l.buildResult(allowed, b.count, b.windowStart.Add(l.window).Sub(now), l.maxRequests)
}

// allowDistributed performs the check against the shared store. The
// backend sets the window expiry on the first increment, so the window
// starts at the key's first request there too.
func (l *FixedWindowLimiter) allowDistributed(ctx context.Context, key string) (*Result, error) {
	_, window := l.limits()

	count, err := l.store.IncrementWithExpiry(ctx, key, 1, window)
	if err != nil {
		return nil, err
	}

	resetAfter, err := l.store.TTL(ctx, key)
	if err != nil {
		l.logger.Warn("failed to read window ttl", zap.Error(err))
		resetAfter = window
	}

	maxRequests, _ := l.limits()
	allowed := int(count) <= maxRequests
	return l.buildResult(allowed, int(count), resetAfter, maxRequests), nil
}

// limits returns the current limit parameters.
func (l *FixedWindowLimiter) limits() (maxRequests int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxRequests, l.window
}

// SetLimits updates the limit parameters at runtime, for configuration hot
// reload. Buckets keep their window start; subsequent checks use the new
// values. Parameters that are not positive are ignored.
func (l *FixedWindowLimiter) SetLimits(maxRequests int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if maxRequests > 0 {
		l.maxRequests = maxRequests
	}
	if window > 0 {
		l.window = window
	}
}

// buildResult assembles a Result from the post-increment count.
func (l *FixedWindowLimiter) buildResult(allowed bool, count int, resetAfter time.Duration, limit int) *Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	if resetAfter < 0 {
		resetAfter = 0
	}

	var retryAfter time.Duration
	if !allowed {
		retryAfter = resetAfter
	}

	recordDecision(allowed)

	return &Result{
		Allowed:    allowed,
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}
}

// Reset implements Limiter.
func (l *FixedWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Destroy implements Limiter. It stops the sweep goroutine and clears all
// buckets. Calling it more than once, or with zero buckets, is safe.
func (l *FixedWindowLimiter) Destroy() {
	l.destroyed.Do(func() {
		l.sweep.Stop()
		close(l.done)

		l.mu.Lock()
		l.buckets = make(map[string]*bucket)
		l.mu.Unlock()
	})
}

// runSweep evicts long-idle buckets until Destroy is called.
func (l *FixedWindowLimiter) runSweep() {
	for {
		select {
		case <-l.done:
			return
		case <-l.sweep.C:
			l.evictStale()
		}
	}
}

// evictStale removes buckets whose window ended at least a full window ago.
// A bucket inside its window, or one that just rolled over, is kept so a
// revisit still sees its state rebuilt naturally.
func (l *FixedWindowLimiter) evictStale() {
	now := l.now()

	l.mu.Lock()
	for key, b := range l.buckets {
		if now.Sub(b.windowStart) >= 2*l.window {
			delete(l.buckets, key)
		}
	}
	l.mu.Unlock()
}

package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"

	"github.com/omnichat/omnichat/internal/observability"
)

var (
	breakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnichat",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Total number of upstream provider calls",
		},
		[]string{"provider", "outcome"},
	)

	breakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "omnichat",
			Subsystem: "provider",
			Name:      "breaker_transitions_total",
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"provider", "from", "to"},
	)
)

// CallFunc performs one upstream provider call.
type CallFunc func(ctx context.Context) (any, error)

// Breaker wraps upstream provider calls with a per-provider circuit breaker.
// A provider that keeps failing is cut off for the configured timeout instead
// of being hammered with doomed requests.
type Breaker struct {
	maxFailures int
	timeout     time.Duration
	logger      observability.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// BreakerOption is a functional option for configuring the breaker.
type BreakerOption func(*Breaker)

// WithLogger sets the logger for the breaker.
func WithLogger(logger observability.Logger) BreakerOption {
	return func(b *Breaker) {
		b.logger = logger
	}
}

// NewBreaker creates a circuit breaker wrapper for upstream provider calls.
func NewBreaker(maxFailures int, timeout time.Duration, opts ...BreakerOption) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	b := &Breaker{
		maxFailures: maxFailures,
		timeout:     timeout,
		logger:      observability.NopLogger(),
		breakers:    make(map[string]*gobreaker.CircuitBreaker),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// breakerFor returns the circuit breaker for a provider, creating it on first use.
func (b *Breaker) breakerFor(providerName string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[providerName]; ok {
		return cb
	}

	maxFailures := safeIntToUint32(b.maxFailures)

	settings := gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 1,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			b.logger.Info("provider circuit breaker state change",
				observability.String("provider", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	b.breakers[providerName] = cb
	return cb
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// Call executes an upstream provider call through the provider's circuit
// breaker. When the breaker is open the call is rejected with a provider
// Error carrying CodeServiceUnavailable, which the boundary classifies
// without leaking breaker internals.
func (b *Breaker) Call(ctx context.Context, providerName string, fn CallFunc) (any, error) {
	cb := b.breakerFor(providerName)

	result, err := cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			breakerRequests.WithLabelValues(providerName, "rejected").Inc()
			b.logger.Warn("provider call rejected by open circuit breaker",
				observability.String("provider", providerName),
			)
			return nil, NewError(providerName, CodeServiceUnavailable, 0,
				"provider temporarily unavailable")
		}
		breakerRequests.WithLabelValues(providerName, "error").Inc()
		return nil, err
	}

	breakerRequests.WithLabelValues(providerName, "success").Inc()
	return result, nil
}

// State returns the current breaker state for a provider.
func (b *Breaker) State(providerName string) gobreaker.State {
	return b.breakerFor(providerName).State()
}

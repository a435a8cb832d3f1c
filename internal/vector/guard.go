package vector

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig tunes the circuit breaker and rate limiter wrapped around an
// index.
type GuardConfig struct {
	// MaxFailures is the number of consecutive failures required to trip
	// the circuit. Default: 3.
	MaxFailures uint32

	// Timeout is how long the circuit stays open before allowing probe
	// requests. Default: 30 seconds.
	Timeout time.Duration

	// HalfOpenMaxSuccesses is the number of probe successes needed to
	// close the circuit again. Default: 2.
	HalfOpenMaxSuccesses uint32

	// RatePerSecond caps index calls per second. Zero disables limiting.
	RatePerSecond float64

	// Burst is the limiter burst size. Default: RatePerSecond rounded up,
	// minimum 1.
	Burst int
}

func (c *GuardConfig) setDefaults() {
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HalfOpenMaxSuccesses == 0 {
		c.HalfOpenMaxSuccesses = 2
	}
	if c.RatePerSecond > 0 && c.Burst < 1 {
		c.Burst = int(c.RatePerSecond) + 1
	}
}

// GuardedIndex wraps a SimilarityIndex with a circuit breaker and an
// optional rate limiter. When the breaker is open or the limiter rejects a
// call it returns ErrUnavailable, which callers treat as a degraded index
// rather than a hard failure.
type GuardedIndex struct {
	inner   SimilarityIndex
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewGuardedIndex wraps inner with the given guard configuration.
func NewGuardedIndex(inner SimilarityIndex, config GuardConfig) *GuardedIndex {
	config.setDefaults()

	g := &GuardedIndex{inner: inner}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "SimilarityIndex",
		MaxRequests: config.HalfOpenMaxSuccesses,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
	})

	if config.RatePerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), config.Burst)
	}

	return g
}

// State returns the breaker state: "closed", "open", or "half-open".
func (g *GuardedIndex) State() string {
	switch g.breaker.State() {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func (g *GuardedIndex) execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if g.limiter != nil && !g.limiter.Allow() {
		return nil, ErrUnavailable
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := g.breaker.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return result, nil
}

// IndexMemory delegates to the inner index through the guard.
func (g *GuardedIndex) IndexMemory(ctx context.Context, memoryID, content string, attrs map[string]interface{}) (string, error) {
	result, err := g.execute(ctx, func() (interface{}, error) {
		return g.inner.IndexMemory(ctx, memoryID, content, attrs)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// FindSimilar delegates to the inner index through the guard.
func (g *GuardedIndex) FindSimilar(ctx context.Context, text string, threshold float64, limit int) ([]Match, error) {
	result, err := g.execute(ctx, func() (interface{}, error) {
		return g.inner.FindSimilar(ctx, text, threshold, limit)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Match), nil
}

// UpdateVector delegates to the inner index through the guard.
func (g *GuardedIndex) UpdateVector(ctx context.Context, vectorID, content string, attrs map[string]interface{}) error {
	_, err := g.execute(ctx, func() (interface{}, error) {
		return nil, g.inner.UpdateVector(ctx, vectorID, content, attrs)
	})
	return err
}

package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pagewise/pagewise-server/internal/metrics"
)

// BreakerOptions configures a Breaker.
type BreakerOptions struct {
	Name        string        // metrics and log label, usually the backend name
	MaxFailures uint32        // consecutive failures before the circuit opens
	OpenTimeout time.Duration // how long the circuit stays open before probing
}

// Breaker wraps a Retriever with a circuit breaker, metrics and error
// classification. Every failure it returns wraps ErrUnavailable.
type Breaker struct {
	next   Retriever
	name   string
	cb     *gobreaker.CircuitBreaker[[][]Candidate]
	logger *slog.Logger
}

// NewBreaker wraps next.
func NewBreaker(next Retriever, opts BreakerOptions, logger *slog.Logger) *Breaker {
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	b := &Breaker{next: next, name: opts.Name, logger: logger}

	settings := gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.MaxFailures
		},
		// A caller hanging up says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RetrieverBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("retriever circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	b.cb = gobreaker.NewCircuitBreaker[[][]Candidate](settings)
	metrics.RetrieverBreakerState.WithLabelValues(opts.Name).Set(float64(gobreaker.StateClosed))

	return b
}

// Query runs the wrapped retriever through the circuit breaker.
func (b *Breaker) Query(ctx context.Context, texts []string, topK int) ([][]Candidate, error) {
	start := time.Now()
	results, err := b.cb.Execute(func() ([][]Candidate, error) {
		return b.next.Query(ctx, texts, topK)
	})
	metrics.RecordRetrieverQuery(b.name, time.Since(start), err)

	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, b.name, err)
	}
	return results, nil
}

// State reports the circuit state ("closed", "half-open" or "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Package guard decorates upstream adapters with a call timeout, a token
// bucket rate limiter, a circuit breaker and per-adapter metrics.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/S-lab-sudo/openwave-app/internal/core/domain"
	"github.com/S-lab-sudo/openwave-app/internal/core/ports"
	"github.com/S-lab-sudo/openwave-app/internal/logging"
	"github.com/S-lab-sudo/openwave-app/internal/metrics"
)

// Options tune one guarded adapter. Zero values fall back to defaults.
type Options struct {
	Timeout         time.Duration
	RatePerSecond   float64
	Burst           int
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

const (
	defaultTimeout         = 20 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second
)

// Guarded implements ports.Upstream around another Upstream.
type Guarded struct {
	inner   ports.Upstream
	timeout time.Duration
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]domain.RawRecord]
	log     zerolog.Logger
}

var _ ports.Upstream = (*Guarded)(nil)

// Wrap returns inner behind a guard.
func Wrap(inner ports.Upstream, opts Options) *Guarded {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaultBreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = defaultBreakerCooldown
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	name := inner.Name()
	log := logging.WithComponent("guard").With().Str("adapter", name).Logger()
	metrics.BreakerState.WithLabelValues(name).Set(0)

	failures := opts.BreakerFailures
	cb := gobreaker.NewCircuitBreaker[[]domain.RawRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Guarded{
		inner:   inner,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
		log:     log,
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Supports(kind domain.Kind) bool { return g.inner.Supports(kind) }

// Fetch runs the inner adapter under the guard. It never returns records
// together with an error.
func (g *Guarded) Fetch(ctx context.Context, q domain.Query) ([]domain.RawRecord, error) {
	name := g.inner.Name()
	start := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(callCtx); err != nil {
		outcome, mapped := g.classify(ctx, callCtx, err)
		metrics.RecordUpstream(name, outcome, time.Since(start))
		return nil, domain.NewAdapterError(name, q.Kind, mapped)
	}

	records, err := g.cb.Execute(func() ([]domain.RawRecord, error) {
		return g.call(callCtx, q)
	})
	if err != nil {
		outcome, mapped := g.classify(ctx, callCtx, err)
		metrics.RecordUpstream(name, outcome, time.Since(start))
		return nil, domain.NewAdapterError(name, q.Kind, mapped)
	}

	outcome := "ok"
	if len(records) == 0 {
		outcome = "empty"
	}
	metrics.RecordUpstream(name, outcome, time.Since(start))
	return records, nil
}

type fetchResult struct {
	records []domain.RawRecord
	err     error
}

// call waits for the inner adapter or the deadline, whichever comes first.
// An adapter that ignores its context is abandoned, not awaited.
func (g *Guarded) call(ctx context.Context, q domain.Query) ([]domain.RawRecord, error) {
	done := make(chan fetchResult, 1)
	go func() {
		records, err := g.inner.Fetch(ctx, q)
		done <- fetchResult{records: records, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return res.records, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Guarded) classify(parent, callCtx context.Context, err error) (string, error) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "unavailable", fmt.Errorf("%w: circuit open", domain.ErrUpstreamUnavailable)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "unavailable", err
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return "timeout", err
	case parent.Err() != nil:
		return "error", err
	case errors.Is(callCtx.Err(), context.DeadlineExceeded):
		g.log.Debug().Dur("timeout", g.timeout).Msg("adapter call timed out")
		return "timeout", fmt.Errorf("%w after %s", domain.ErrUpstreamTimeout, g.timeout)
	default:
		return "error", err
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

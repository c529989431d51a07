package llm

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/interstellar-mare/advisor/internal/resilience"
)

// ResilientConfig tunes the resilient decorator.
type ResilientConfig struct {
	// Timeout bounds each individual attempt. Default: 10s.
	Timeout time.Duration

	// MaxAttempts is the total attempt count including the first call.
	// Default: 3 (two retries).
	MaxAttempts int

	// Backoff is the delay between attempts. Default: 1s.
	Backoff time.Duration

	// RequestsPerSecond throttles outgoing calls. Zero disables throttling.
	RequestsPerSecond float64
}

func (cfg ResilientConfig) withDefaults() ResilientConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return cfg
}

// ResilientGenerator decorates a Generator with per-attempt timeouts,
// retries, rate limiting, and a circuit breaker.
type ResilientGenerator struct {
	inner   Generator
	cfg     ResilientConfig
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// NewResilientGenerator wraps inner with the resilience policy in cfg.
func NewResilientGenerator(inner Generator, cfg ResilientConfig) *ResilientGenerator {
	cfg = cfg.withDefaults()
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &ResilientGenerator{
		inner:   inner,
		cfg:     cfg,
		limiter: limiter,
		breaker: resilience.NewCircuitBreaker("llm", 5, 30*time.Second),
	}
}

func (g *ResilientGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return guarded(ctx, g, req.Phase, func(ctx context.Context) (string, error) {
		return g.inner.Generate(ctx, req)
	})
}

func (g *ResilientGenerator) GenerateStructured(ctx context.Context, req GenerateRequest, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return eris.New("llm: structured output target must be a non-nil pointer")
	}

	// Each attempt decodes into a fresh value so a partially decoded failed
	// attempt cannot leave stale fields behind.
	_, err := guarded(ctx, g, req.Phase, func(ctx context.Context) (struct{}, error) {
		fresh := reflect.New(target.Type().Elem())
		if err := g.inner.GenerateStructured(ctx, req, fresh.Interface()); err != nil {
			return struct{}{}, err
		}
		target.Elem().Set(fresh.Elem())
		return struct{}{}, nil
	})
	return err
}

func guarded[T any](ctx context.Context, g *ResilientGenerator, phase string, fn func(ctx context.Context) (T, error)) (T, error) {
	retryCfg := resilience.RetryConfig{
		MaxAttempts: g.cfg.MaxAttempts,
		Backoff:     g.cfg.Backoff,
		ShouldRetry: shouldRetry,
		OnRetry:     resilience.RetryLogger("anthropic", phase),
	}

	return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (T, error) {
		var zero T

		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return zero, eris.Wrap(err, "llm: rate limit wait")
			}
		}
		if !g.breaker.Allow() {
			return zero, resilience.ErrCircuitOpen
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		val, err := fn(attemptCtx)
		g.breaker.Record(err)
		return val, err
	})
}

// shouldRetry extends the transient check: a structured response that fails
// to decode is retried because a fresh sample usually produces valid JSON.
func shouldRetry(err error) bool {
	if resilience.IsTransient(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "decode structured response") ||
		strings.Contains(msg, "empty response")
}

// Package breaker wraps a provider with a circuit breaker so that an outage of the
// cache backend fails fast instead of burning the retry budget of every caller.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	pr "github.com/unkn0wn-root/menucache/provider"
)

// Config mirrors gobreaker.Settings with failure-ratio tripping.
type Config struct {
	Name             string
	MaxRequests      uint32        // probes allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open -> half-open delay
	FailureThreshold float64       // ratio of failures that trips the breaker
	MinRequests      uint32        // requests needed before the ratio is evaluated

	// OnStateChange is called on every transition (optional).
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns settings tuned for a cache: trip early, probe often.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          5 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      10,
	}
}

type Provider struct {
	inner pr.Provider
	cb    *gobreaker.CircuitBreaker
}

var _ pr.Provider = (*Provider)(nil)

func New(inner pr.Provider, cfg Config) *Provider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful: func(err error) bool {
			// a cancelled caller says nothing about backend health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Provider{inner: inner, cb: cb}
}

// State exposes the current breaker state.
func (p *Provider) State() gobreaker.State { return p.cb.State() }

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	type hit struct {
		b  []byte
		ok bool
	}
	res, err := p.cb.Execute(func() (interface{}, error) {
		b, ok, err := p.inner.Get(ctx, key)
		return hit{b, ok}, err
	})
	if err != nil {
		return nil, false, wrap(err)
	}
	h := res.(hit)
	return h.b, h.ok, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.Set(ctx, key, value, cost, ttl)
	})
	if err != nil {
		return false, wrap(err)
	}
	return res.(bool), nil
}

func (p *Provider) Exists(ctx context.Context, key string) (bool, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.Exists(ctx, key)
	})
	if err != nil {
		return false, wrap(err)
	}
	return res.(bool), nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.inner.Del(ctx, key)
	})
	return wrap(err)
}

func (p *Provider) Clear(ctx context.Context, prefix string) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.inner.Clear(ctx, prefix)
	})
	return wrap(err)
}

func (p *Provider) Close(ctx context.Context) error { return p.inner.Close(ctx) }

// wrap tags breaker rejections with provider.ErrUnavailable so callers skip retries.
func wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", pr.ErrUnavailable, err)
	}
	return err
}

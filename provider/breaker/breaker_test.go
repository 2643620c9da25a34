package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pr "github.com/unkn0wn-root/menucache/provider"
)

type downProvider struct {
	calls int
	err   error
}

func (p *downProvider) Get(context.Context, string) ([]byte, bool, error) {
	p.calls++
	return nil, false, p.err
}

func (p *downProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	p.calls++
	return false, p.err
}

func (p *downProvider) Exists(context.Context, string) (bool, error) {
	p.calls++
	return false, p.err
}

func (p *downProvider) Del(context.Context, string) error {
	p.calls++
	return p.err
}

func (p *downProvider) Clear(context.Context, string) error {
	p.calls++
	return p.err
}

func (p *downProvider) Close(context.Context) error { return nil }

func TestBreakerOpensAndFailsFast(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	inner := &downProvider{err: boom}
	cfg := DefaultConfig("test")
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour
	p := New(inner, cfg)

	for i := 0; i < 3; i++ {
		_, _, err := p.Get(ctx, "menu_1")
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Del(ctx, "menu_1")
	assert.ErrorIs(t, err, pr.ErrUnavailable)
	assert.Equal(t, 3, inner.calls, "open breaker must not reach the backend")
}

func TestBreakerPassesThroughWhenHealthy(t *testing.T) {
	ctx := context.Background()
	inner := &downProvider{}
	p := New(inner, DefaultConfig("ok"))

	ok, err := p.Set(ctx, "k", []byte("v"), 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = p.Exists(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, p.Clear(ctx, ""))
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestCancelledCallsDoNotTrip(t *testing.T) {
	inner := &downProvider{err: context.Canceled}
	cfg := DefaultConfig("cancel")
	cfg.MinRequests = 1
	p := New(inner, cfg)

	for i := 0; i < 5; i++ {
		_ = p.Del(context.Background(), "k")
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

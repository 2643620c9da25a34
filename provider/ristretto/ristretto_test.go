package ristretto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestReadYourWritesAndPrefixClear(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	for _, k := range []string{"x:menu_1", "x:menu_2", "y:menu_1"} {
		ok, err := p.Set(ctx, k, []byte(k), 1, 0)
		require.NoError(t, err)
		require.True(t, ok)
	}
	b, hit, err := p.Get(ctx, "x:menu_1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "x:menu_1", string(b))

	require.NoError(t, p.Clear(ctx, "x:"))
	exists, _ := p.Exists(ctx, "x:menu_2")
	assert.False(t, exists)
	exists, _ = p.Exists(ctx, "y:menu_1")
	assert.True(t, exists)

	require.NoError(t, p.Del(ctx, "y:menu_1"))
	exists, _ = p.Exists(ctx, "y:menu_1")
	assert.False(t, exists)
}

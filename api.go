package menucache

import (
	"time"

	c "github.com/unkn0wn-root/menucache/codec"
	gen "github.com/unkn0wn-root/menucache/genstore"
	"github.com/unkn0wn-root/menucache/internal/wire"
	pr "github.com/unkn0wn-root/menucache/provider"
)

type SetCostFunc func(key string, raw []byte) int64

// Kind tags the entity shape stored under a key.
type Kind = wire.Kind

const (
	KindMenu        = wire.KindMenu
	KindSubmenu     = wire.KindSubmenu
	KindDish        = wire.KindDish
	KindMenuList    = wire.KindMenuList
	KindSubmenuList = wire.KindSubmenuList
	KindDishList    = wire.KindDishList
	KindFullList    = wire.KindFullList
)

// RetryPolicy bounds exponential backoff around every provider call.
type RetryPolicy struct {
	MaxAttempts     uint          // 0 => 5
	InitialInterval time.Duration // 0 => 50ms
	MaxInterval     time.Duration // 0 => 1s

	// Retryable decides whether an error is transient. nil retries everything
	// except context cancellation and provider.ErrUnavailable.
	Retryable func(error) bool
}

// Options tune the keyspace.
// Only Provider is required; others have sensible defaults.
type Options struct {
	// Required
	Provider pr.Provider

	Prefix          string        // prepended to every storage key; "" keeps keys bare
	Logger          Logger        // if nil, NopLogger is used
	Hooks           Hooks         // if nil, NopHooks is used
	DefaultTTL      time.Duration // 0 => 10m
	CleanupInterval time.Duration // 0 => 1h
	GenRetention    time.Duration // 0 => 30d
	Disabled        bool          // default false (enabled)
	ComputeSetCost  SetCostFunc   // default 1
	GenStore        gen.GenStore  // nil => LocalGenStore (in-process)
	Retry           RetryPolicy
}

// CacheOptions bind a typed view to one entity kind.
type CacheOptions[V any] struct {
	Kind   Kind       // required
	Codec  c.Codec[V] // nil => JSON
	Schema byte       // bump when V changes shape; 0 => 1
	TTL    time.Duration
}

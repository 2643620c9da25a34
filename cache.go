package menucache

import (
	"context"
	"errors"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/menucache/codec"
	gen "github.com/unkn0wn-root/menucache/genstore"
	"github.com/unkn0wn-root/menucache/internal/wire"
	pr "github.com/unkn0wn-root/menucache/provider"
)

// Keyspace owns the provider, the generation store and the retry policy shared
// by every typed Cache built on top of it. Key-level operations (exists, delete,
// flush) do not need to know the value type and live here.
type Keyspace struct {
	provider       pr.Provider
	prefix         string
	log            Logger
	hooks          Hooks
	enabled        bool
	defaultTTL     time.Duration
	computeSetCost SetCostFunc
	gen            gen.GenStore
	retry          RetryPolicy
}

func New(opts Options) (*Keyspace, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("menucache: provider is required")
	}

	k := &Keyspace{
		provider: opts.Provider,
		prefix:   opts.Prefix,
		enabled:  !opts.Disabled,
	}

	// defaults
	k.log = coalesce[Logger](opts.Logger, NopLogger{})
	k.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	k.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		k.computeSetCost = opts.ComputeSetCost
	} else {
		k.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	k.retry = opts.Retry
	k.retry.MaxAttempts = coalesce(k.retry.MaxAttempts, defaultRetryAttempts)
	k.retry.InitialInterval = coalesce(k.retry.InitialInterval, defaultRetryInitial)
	k.retry.MaxInterval = coalesce(k.retry.MaxInterval, defaultRetryMax)
	if k.retry.Retryable == nil {
		k.retry.Retryable = defaultRetryable
	}

	if opts.GenStore != nil {
		k.gen = opts.GenStore
	} else {
		// default to in-process generations with periodic cleanup
		k.gen = gen.NewLocalGenStore(
			coalesce(opts.CleanupInterval, defaultSweep),
			coalesce(opts.GenRetention, defaultGenRetention),
		)
	}
	return k, nil
}

func (k *Keyspace) Enabled() bool { return k.enabled }

// Close closes the gen store first (best effort), then the provider.
func (k *Keyspace) Close(ctx context.Context) error {
	if k.gen != nil {
		_ = k.gen.Close(ctx)
	}
	if k.provider != nil {
		return k.provider.Close(ctx)
	}
	return nil
}

// Exists reports whether key holds an entry. It does not validate the entry.
func (k *Keyspace) Exists(ctx context.Context, key string) (bool, error) {
	if !k.enabled {
		return false, nil
	}
	sk := k.storageKey(key)
	return call(ctx, k, "exists", sk, func() (bool, error) {
		return k.provider.Exists(ctx, sk)
	})
}

// Delete invalidates key: bump its generation, then drop the entry. Deleting an
// absent key is a no-op. Only a failed delete is returned; a failed bump alone is
// reported through hooks because the entry itself is already gone.
func (k *Keyspace) Delete(ctx context.Context, key string) error {
	if !k.enabled {
		return nil
	}
	sk := k.storageKey(key)
	newGen, bumpErr := k.gen.Bump(ctx, sk)
	if bumpErr != nil {
		k.hooks.GenBumpError(sk, bumpErr)
		k.log.Error("gen bump error", Fields{"key": sk, "err": bumpErr})
	}
	delErr := callErr(ctx, k, "del", sk, func() error {
		return k.provider.Del(ctx, sk)
	})
	if delErr != nil {
		if bumpErr != nil {
			k.hooks.InvalidateOutage(key, bumpErr, delErr)
		}
		return &InvalidateError{Key: key, BumpErr: bumpErr, DelErr: delErr}
	}
	k.log.Debug("invalidated key (bumped gen + deleted entry)", Fields{"key": key, "newGen": newGen})
	return nil
}

// DeleteMany deletes every key, continuing past failures. The joined error
// carries one *InvalidateError per failed key.
func (k *Keyspace) DeleteMany(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := k.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush removes every entry under the keyspace prefix. With an empty prefix the
// whole provider is cleared.
func (k *Keyspace) Flush(ctx context.Context) error {
	if !k.enabled {
		return nil
	}
	if err := callErr(ctx, k, "clear", "", func() error {
		return k.provider.Clear(ctx, k.prefix)
	}); err != nil {
		return err
	}
	k.hooks.Flushed(k.prefix)
	k.log.Info("keyspace flushed", Fields{"prefix": k.prefix})
	return nil
}

func (k *Keyspace) SnapshotGen(key string) uint64 {
	return k.snapshotGen(k.storageKey(key))
}

func (k *Keyspace) snapshotGen(storageKey string) uint64 {
	g, err := k.gen.Snapshot(context.Background(), storageKey)
	if err != nil {
		// Conservative: treat as 0 so CAS writes will skip; reads will self-heal
		k.hooks.GenSnapshotError(1, err)
		k.log.Warn("gen snapshot error", Fields{"key": storageKey, "err": err})
		return 0
	}
	return g
}

func (k *Keyspace) storageKey(key string) string { return k.prefix + key }

// selfHeal drops an unusable entry. Best effort: a failure here only means the
// next read heals again.
func (k *Keyspace) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = k.provider.Del(ctx, storageKey)
	k.hooks.SelfHeal(storageKey, reason)
	k.log.Debug("self-healed entry", Fields{"key": storageKey, "reason": reason})
}

// Cache is a typed view over a Keyspace for one entity kind.
type Cache[V any] struct {
	ks     *Keyspace
	kind   Kind
	schema byte
	codec  c.Codec[V]
	ttl    time.Duration
}

func NewCache[V any](ks *Keyspace, opts CacheOptions[V]) (*Cache[V], error) {
	if ks == nil {
		return nil, fmt.Errorf("menucache: keyspace is required")
	}
	if opts.Kind == 0 {
		return nil, fmt.Errorf("menucache: kind is required")
	}
	return &Cache[V]{
		ks:     ks,
		kind:   opts.Kind,
		schema: coalesce[byte](opts.Schema, 1),
		codec:  coalesce[c.Codec[V]](opts.Codec, c.JSON[V]{}),
		ttl:    coalesce(opts.TTL, ks.defaultTTL),
	}, nil
}

func (c *Cache[V]) Kind() Kind { return c.kind }

func (c *Cache[V]) Keyspace() *Keyspace { return c.ks }

// Get returns the cached value for key. A miss, a corrupt entry, an entry of
// another kind/schema and an entry from an older generation all report ok=false;
// the last three are deleted on the way. err is non-nil only when the provider
// failed after retries.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	ks := c.ks
	if !ks.enabled {
		return zero, false, nil
	}
	sk := ks.storageKey(key)
	h, err := call(ctx, ks, "get", sk, func() (hit, error) {
		b, ok, err := ks.provider.Get(ctx, sk)
		return hit{b, ok}, err
	})
	if err != nil {
		return zero, false, err
	}
	if !h.ok {
		ks.hooks.Miss(c.kind.String())
		return zero, false, nil
	}
	g, payload, err := wire.DecodeAs(h.b, c.kind, c.schema)
	if err != nil {
		ks.selfHeal(ctx, sk, "corrupt")
		ks.hooks.Miss(c.kind.String())
		return zero, false, nil
	}
	// validate generation
	if g != ks.snapshotGen(sk) {
		ks.selfHeal(ctx, sk, "gen_mismatch")
		ks.hooks.Miss(c.kind.String())
		return zero, false, nil
	}
	v, err := c.codec.Decode(payload)
	if err != nil {
		ks.selfHeal(ctx, sk, "value_decode")
		ks.hooks.Miss(c.kind.String())
		return zero, false, nil
	}
	ks.hooks.Hit(c.kind.String())
	return v, true, nil
}

// Set writes value under the current generation. Used for eager repopulation,
// when the caller holds a value fresher than anything cached.
func (c *Cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if !c.ks.enabled {
		return nil
	}
	sk := c.ks.storageKey(key)
	return c.write(ctx, sk, value, c.ks.snapshotGen(sk), ttl)
}

// Replace bumps key's generation and writes value under the new one, so a
// read-through fill that loaded older data cannot overwrite it.
func (c *Cache[V]) Replace(ctx context.Context, key string, value V, ttl time.Duration) error {
	if !c.ks.enabled {
		return nil
	}
	sk := c.ks.storageKey(key)
	g, err := c.ks.gen.Bump(ctx, sk)
	if err != nil {
		c.ks.hooks.GenBumpError(sk, err)
		c.ks.log.Warn("gen bump error", Fields{"key": sk, "err": err})
		g = c.ks.snapshotGen(sk)
	}
	return c.write(ctx, sk, value, g, ttl)
}

// SetAll is Set for listing kinds; lists are stored whole under one key.
func (c *Cache[V]) SetAll(ctx context.Context, key string, value V, ttl time.Duration) error {
	return c.Set(ctx, key, value, ttl)
}

// SetWithGen writes value only if key's generation still equals observedGen,
// i.e. no invalidation happened since the caller took its snapshot.
func (c *Cache[V]) SetWithGen(ctx context.Context, key string, value V, observedGen uint64, ttl time.Duration) error {
	if !c.ks.enabled {
		return nil
	}
	sk := c.ks.storageKey(key)
	if c.ks.snapshotGen(sk) != observedGen {
		// generation moved; skip stale write
		c.ks.log.Debug("SetWithGen skipped (gen mismatch)", Fields{"key": key, "obs": observedGen})
		return nil
	}
	return c.write(ctx, sk, value, observedGen, ttl)
}

func (c *Cache[V]) SnapshotGen(key string) uint64 { return c.ks.SnapshotGen(key) }

func (c *Cache[V]) Exists(ctx context.Context, key string) (bool, error) {
	return c.ks.Exists(ctx, key)
}

func (c *Cache[V]) Delete(ctx context.Context, key string) error {
	return c.ks.Delete(ctx, key)
}

func (c *Cache[V]) write(ctx context.Context, sk string, value V, g uint64, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	payload, err := c.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("menucache: encode %s: %w", c.kind, err)
	}
	wireb := wire.Encode(wire.Envelope{Kind: c.kind, Schema: c.schema, Gen: g, Payload: payload})
	ok, err := call(ctx, c.ks, "set", sk, func() (bool, error) {
		return c.ks.provider.Set(ctx, sk, wireb, c.ks.computeSetCost(sk, wireb), ttl)
	})
	if err != nil {
		return err
	}
	if !ok {
		c.ks.hooks.ProviderSetRejected(sk)
		c.ks.log.Debug("Set rejected by provider (pressure)", Fields{"key": sk})
	}
	return nil
}

type hit struct {
	b  []byte
	ok bool
}

// Package coordinator decides what the cache holds for the menu hierarchy.
//
// Reads go through the cache: a usable snapshot for the requested scope is
// returned as is, anything else loads from the store and fills the key under
// the generation observed before loading. Writes are reported as Mutations;
// updates repopulate the entity key in the request and every affected key is
// deleted by a deferred task that runs after the response is sent.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/codec"
	"github.com/unkn0wn-root/menucache/deferred"
	"github.com/unkn0wn-root/menucache/internal/model"
)

// Submitter runs deferred tasks. *deferred.Queue satisfies it.
type Submitter interface {
	Submit(tasks ...deferred.Task) bool
}

type Options struct {
	Codec         string // codec.NameJSON when empty
	MaxEntryBytes int    // 0 => unlimited
	TTL           time.Duration

	// Queue receives invalidations scheduled outside a request batch. With
	// neither a batch nor a queue they run inline.
	Queue  Submitter
	Logger menucache.Logger
	Hooks  menucache.Hooks
}

type Coordinator struct {
	ks *menucache.Keyspace

	menus    *menucache.Cache[Snapshot[model.Menu]]
	submenus *menucache.Cache[Snapshot[model.Submenu]]
	dishes   *menucache.Cache[Snapshot[model.Dish]]

	menuList    *menucache.Cache[Snapshot[[]model.Menu]]
	submenuList *menucache.Cache[Snapshot[[]model.Submenu]]
	dishList    *menucache.Cache[Snapshot[[]model.Dish]]
	full        *menucache.Cache[Snapshot[[]model.MenuTree]]

	queue Submitter
	log   menucache.Logger
	hooks menucache.Hooks
}

func New(ks *menucache.Keyspace, opts Options) (*Coordinator, error) {
	if ks == nil {
		return nil, errors.New("coordinator: keyspace is required")
	}
	c := &Coordinator{ks: ks, queue: opts.Queue, log: opts.Logger, hooks: opts.Hooks}
	if c.log == nil {
		c.log = menucache.NopLogger{}
	}
	if c.hooks == nil {
		c.hooks = menucache.NopHooks{}
	}

	var err error
	if c.menus, err = newCache[model.Menu](ks, menucache.KindMenu, opts); err != nil {
		return nil, err
	}
	if c.submenus, err = newCache[model.Submenu](ks, menucache.KindSubmenu, opts); err != nil {
		return nil, err
	}
	if c.dishes, err = newCache[model.Dish](ks, menucache.KindDish, opts); err != nil {
		return nil, err
	}
	if c.menuList, err = newCache[[]model.Menu](ks, menucache.KindMenuList, opts); err != nil {
		return nil, err
	}
	if c.submenuList, err = newCache[[]model.Submenu](ks, menucache.KindSubmenuList, opts); err != nil {
		return nil, err
	}
	if c.dishList, err = newCache[[]model.Dish](ks, menucache.KindDishList, opts); err != nil {
		return nil, err
	}
	if c.full, err = newCache[[]model.MenuTree](ks, menucache.KindFullList, opts); err != nil {
		return nil, err
	}
	return c, nil
}

func newCache[T any](ks *menucache.Keyspace, kind menucache.Kind, opts Options) (*menucache.Cache[Snapshot[T]], error) {
	cd, err := codec.ForName[Snapshot[T]](opts.Codec, opts.MaxEntryBytes)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %s: %w", kind, err)
	}
	return menucache.NewCache(ks, menucache.CacheOptions[Snapshot[T]]{Kind: kind, Codec: cd, TTL: opts.TTL})
}

// Loader fetches the authoritative value from the store.
type Loader[T any] func(ctx context.Context) (T, error)

// readThrough returns the cached value for key when it answered the same
// scope; otherwise it loads and fills. Load errors are returned untouched and
// leave the cache as it was.
func readThrough[T any](ctx context.Context, c *menucache.Cache[Snapshot[T]], key string, scope Scope, load Loader[T]) (T, error) {
	var zero T
	snap, ok, err := c.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok && snap.Scope == scope {
		return snap.Value, nil
	}
	obs := c.SnapshotGen(key)
	v, err := load(ctx)
	if err != nil {
		return zero, err
	}
	if err := c.SetWithGen(ctx, key, Snapshot[T]{Scope: scope, Value: v}, obs, 0); err != nil {
		return zero, err
	}
	return v, nil
}

func (c *Coordinator) Menu(ctx context.Context, id uuid.UUID, load Loader[model.Menu]) (model.Menu, error) {
	return readThrough(ctx, c.menus, MenuKey(id), Scope{}, load)
}

func (c *Coordinator) Menus(ctx context.Context, offset, limit int, load Loader[[]model.Menu]) ([]model.Menu, error) {
	return readThrough(ctx, c.menuList, MenuListKey, Scope{Offset: offset, Limit: limit}, load)
}

func (c *Coordinator) Submenu(ctx context.Context, menuID, id uuid.UUID, load Loader[model.Submenu]) (model.Submenu, error) {
	return readThrough(ctx, c.submenus, SubmenuKey(id), Scope{MenuID: menuID}, load)
}

func (c *Coordinator) Submenus(ctx context.Context, menuID uuid.UUID, offset, limit int, load Loader[[]model.Submenu]) ([]model.Submenu, error) {
	return readThrough(ctx, c.submenuList, SubmenuListKey, Scope{MenuID: menuID, Offset: offset, Limit: limit}, load)
}

func (c *Coordinator) Dish(ctx context.Context, menuID, submenuID, id uuid.UUID, load Loader[model.Dish]) (model.Dish, error) {
	return readThrough(ctx, c.dishes, DishKey(id), Scope{MenuID: menuID, SubmenuID: submenuID}, load)
}

func (c *Coordinator) Dishes(ctx context.Context, menuID, submenuID uuid.UUID, offset, limit int, load Loader[[]model.Dish]) ([]model.Dish, error) {
	scope := Scope{MenuID: menuID, SubmenuID: submenuID, Offset: offset, Limit: limit}
	return readThrough(ctx, c.dishList, DishListKey, scope, load)
}

func (c *Coordinator) Full(ctx context.Context, offset, limit int, load Loader[[]model.MenuTree]) ([]model.MenuTree, error) {
	return readThrough(ctx, c.full, FullListKey, Scope{Offset: offset, Limit: limit}, load)
}

// Apply reacts to a committed mutation: repopulate synchronously, delete
// later. A repopulation failure is logged and never returned.
func (c *Coordinator) Apply(ctx context.Context, m Mutation) Plan {
	p := Fanout(m)
	if p.Repopulate != "" {
		if err := c.repopulate(ctx, m); err != nil {
			c.log.Warn("eager repopulation failed", menucache.Fields{"mutation": m.String(), "key": p.Repopulate, "err": err})
		}
	}
	c.schedule(ctx, "invalidate "+m.String(), p.Delete)
	return p
}

func (c *Coordinator) repopulate(ctx context.Context, m Mutation) error {
	switch {
	case m.Menu != nil:
		return c.menus.Replace(ctx, MenuKey(m.Menu.ID), Snapshot[model.Menu]{Value: *m.Menu}, 0)
	case m.Submenu != nil:
		snap := Snapshot[model.Submenu]{Scope: Scope{MenuID: m.MenuID}, Value: *m.Submenu}
		return c.submenus.Replace(ctx, SubmenuKey(m.Submenu.ID), snap, 0)
	case m.Dish != nil:
		snap := Snapshot[model.Dish]{Scope: Scope{MenuID: m.MenuID, SubmenuID: m.SubmenuID}, Value: *m.Dish}
		return c.dishes.Replace(ctx, DishKey(m.Dish.ID), snap, 0)
	}
	return fmt.Errorf("coordinator: %s carries no value to repopulate", m)
}

// schedule defers deletion of keys: into the request batch when ctx has one,
// else onto the queue.
func (c *Coordinator) schedule(ctx context.Context, name string, keys []string) {
	if len(keys) == 0 {
		return
	}
	t := deferred.Task{Name: name, Run: func(ctx context.Context) error {
		return c.Invalidate(ctx, keys...)
	}}
	if deferred.Defer(ctx, t) {
		return
	}
	if c.queue != nil {
		// a dropped batch is reported by the queue
		c.queue.Submit(t)
		return
	}
	_ = t.Run(context.WithoutCancel(ctx))
}

// Invalidate deletes keys now. Every key is attempted; failures are reported
// through InvalidationDropped and joined into the result.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...string) error {
	var errs []error
	for _, k := range keys {
		if err := c.ks.Delete(ctx, k); err != nil {
			c.hooks.InvalidationDropped(k, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush drops every cached key. Used after a bulk replace of the store.
func (c *Coordinator) Flush(ctx context.Context) error {
	return c.ks.Flush(ctx)
}

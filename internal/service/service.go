// Package service implements the menu, submenu and dish use cases on top of
// the store, with caching delegated to the coordinator.
package service

import (
	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/store"
)

// Services bundles one service per entity kind.
type Services struct {
	Menus    *MenuService
	Submenus *SubmenuService
	Dishes   *DishService
	Full     *FullMenuService
}

func New(st store.Store, c *coordinator.Coordinator, log menucache.Logger) *Services {
	if log == nil {
		log = menucache.NopLogger{}
	}
	return &Services{
		Menus:    &MenuService{store: st, cache: c, log: log},
		Submenus: &SubmenuService{store: st, cache: c, log: log},
		Dishes:   &DishService{store: st, cache: c, log: log},
		Full:     &FullMenuService{store: st, cache: c},
	}
}

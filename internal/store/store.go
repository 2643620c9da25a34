// Package store defines the relational hierarchy the service reads and writes.
// Every operation is scoped by the full parent id path, so an id that exists
// under another parent is reported as ErrNotFound.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache/internal/model"
)

var ErrNotFound = errors.New("store: not found")

type MenuStore interface {
	CreateMenu(ctx context.Context, in model.MenuInput) (model.Menu, error)
	GetMenu(ctx context.Context, id uuid.UUID) (model.Menu, error)
	ListMenus(ctx context.Context, offset, limit int) ([]model.Menu, error)
	UpdateMenu(ctx context.Context, id uuid.UUID, p model.MenuPatch) (model.Menu, error)
	DeleteMenu(ctx context.Context, id uuid.UUID) (model.Cascade, error)
}

type SubmenuStore interface {
	CreateSubmenu(ctx context.Context, menuID uuid.UUID, in model.SubmenuInput) (model.Submenu, error)
	GetSubmenu(ctx context.Context, menuID, id uuid.UUID) (model.Submenu, error)
	ListSubmenus(ctx context.Context, menuID uuid.UUID, offset, limit int) ([]model.Submenu, error)
	UpdateSubmenu(ctx context.Context, menuID, id uuid.UUID, p model.SubmenuPatch) (model.Submenu, error)
	DeleteSubmenu(ctx context.Context, menuID, id uuid.UUID) (model.Cascade, error)
}

type DishStore interface {
	CreateDish(ctx context.Context, menuID, submenuID uuid.UUID, in model.DishInput) (model.Dish, error)
	GetDish(ctx context.Context, menuID, submenuID, id uuid.UUID) (model.Dish, error)
	ListDishes(ctx context.Context, menuID, submenuID uuid.UUID, offset, limit int) ([]model.Dish, error)
	UpdateDish(ctx context.Context, menuID, submenuID, id uuid.UUID, p model.DishPatch) (model.Dish, error)
	DeleteDish(ctx context.Context, menuID, submenuID, id uuid.UUID) error
}

// TreeStore reads and bulk-replaces the whole hierarchy.
type TreeStore interface {
	ListFull(ctx context.Context, offset, limit int) ([]model.MenuTree, error)
	// ReplaceAll swaps the entire hierarchy in one transaction. Zero ids
	// are assigned fresh ones.
	ReplaceAll(ctx context.Context, menus []model.MenuTree) error
}

type Store interface {
	MenuStore
	SubmenuStore
	DishStore
	TreeStore
	Ping(ctx context.Context) error
	Close()
}

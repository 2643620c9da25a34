package coordinator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache/internal/model"
)

type Entity uint8

const (
	EntityMenu Entity = iota + 1
	EntitySubmenu
	EntityDish
)

func (e Entity) String() string {
	switch e {
	case EntityMenu:
		return "menu"
	case EntitySubmenu:
		return "submenu"
	case EntityDish:
		return "dish"
	}
	return fmt.Sprintf("entity(%d)", uint8(e))
}

type Op uint8

const (
	OpCreate Op = iota + 1
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Mutation describes a committed write. Ids not on the entity's parent path
// are left zero. For updates exactly one of Menu, Submenu, Dish carries the
// fresh value.
type Mutation struct {
	Op     Op
	Entity Entity

	MenuID    uuid.UUID
	SubmenuID uuid.UUID
	DishID    uuid.UUID

	// Children removed with a deleted menu or submenu.
	Cascade model.Cascade

	Menu    *model.Menu
	Submenu *model.Submenu
	Dish    *model.Dish
}

func (m Mutation) String() string { return m.Entity.String() + "." + m.Op.String() }

// Plan is the cache work a mutation causes.
type Plan struct {
	Repopulate string   // written eagerly in the request; "" for none
	Delete     []string // deleted after the response
}

// Fanout returns the keys whose cached content or counts can change when m
// commits. The full listing aggregates everything, so it is dropped by every
// mutation.
func Fanout(m Mutation) Plan {
	var p Plan
	switch m.Entity {
	case EntityMenu:
		switch m.Op {
		case OpCreate:
			p.Delete = []string{MenuListKey, FullListKey}
		case OpUpdate:
			p.Repopulate = MenuKey(m.MenuID)
			p.Delete = []string{MenuListKey, FullListKey}
		case OpDelete:
			p.Delete = []string{MenuKey(m.MenuID), MenuListKey, SubmenuListKey, DishListKey, FullListKey}
			p.Delete = appendCascade(p.Delete, m.Cascade)
		}
	case EntitySubmenu:
		switch m.Op {
		case OpCreate:
			p.Delete = []string{MenuListKey, SubmenuListKey, FullListKey, MenuKey(m.MenuID)}
		case OpUpdate:
			p.Repopulate = SubmenuKey(m.SubmenuID)
			p.Delete = []string{SubmenuListKey, FullListKey}
		case OpDelete:
			p.Delete = []string{
				SubmenuKey(m.SubmenuID), MenuKey(m.MenuID),
				MenuListKey, SubmenuListKey, DishListKey, FullListKey,
			}
			p.Delete = appendCascade(p.Delete, m.Cascade)
		}
	case EntityDish:
		switch m.Op {
		case OpCreate:
			p.Delete = []string{
				MenuListKey, SubmenuListKey, DishListKey,
				SubmenuKey(m.SubmenuID), MenuKey(m.MenuID), FullListKey,
			}
		case OpUpdate:
			p.Repopulate = DishKey(m.DishID)
			p.Delete = []string{DishListKey, FullListKey}
		case OpDelete:
			p.Delete = []string{
				MenuKey(m.MenuID), SubmenuKey(m.SubmenuID), DishKey(m.DishID),
				MenuListKey, SubmenuListKey, DishListKey, FullListKey,
			}
		}
	}
	return p
}

func appendCascade(keys []string, c model.Cascade) []string {
	for _, id := range c.Submenus {
		keys = append(keys, SubmenuKey(id))
	}
	for _, id := range c.Dishes {
		keys = append(keys, DishKey(id))
	}
	return keys
}

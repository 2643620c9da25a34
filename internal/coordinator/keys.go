package coordinator

import "github.com/google/uuid"

// Listing slots. Each holds the last list read for its kind.
const (
	MenuListKey    = "menu_list"
	SubmenuListKey = "submenu_list"
	DishListKey    = "dish_list"
	FullListKey    = "full_menus_submenus_dishes"
)

func MenuKey(id uuid.UUID) string    { return "menu_" + id.String() }
func SubmenuKey(id uuid.UUID) string { return "submenu_" + id.String() }
func DishKey(id uuid.UUID) string    { return "dish_" + id.String() }

// Scope is the query a cached value answered. A per-entity key records its
// parent ids; a listing slot also records the page.
type Scope struct {
	MenuID    uuid.UUID `json:"menu_id"`
	SubmenuID uuid.UUID `json:"submenu_id"`
	Offset    int       `json:"offset"`
	Limit     int       `json:"limit"`
}

// Snapshot is what the coordinator stores under a key.
type Snapshot[T any] struct {
	Scope Scope `json:"scope"`
	Value T     `json:"value"`
}

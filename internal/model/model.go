// Package model holds the menu hierarchy entities as they are served over HTTP
// and stored in the cache.
package model

import (
	"github.com/google/uuid"
)

type Menu struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	SubmenusCount int       `json:"submenus_count"`
	DishesCount   int       `json:"dishes_count"`
}

type Submenu struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DishesCount int       `json:"dishes_count"`
}

type Dish struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
}

// MenuTree is a menu with its submenus and their dishes.
type MenuTree struct {
	Menu
	Submenus []SubmenuTree `json:"submenus"`
}

type SubmenuTree struct {
	Submenu
	Dishes []Dish `json:"dishes"`
}

// Cascade lists the children removed together with a deleted parent.
type Cascade struct {
	Submenus []uuid.UUID
	Dishes   []uuid.UUID
}

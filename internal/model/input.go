package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type MenuInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=1024"`
}

// MenuPatch carries the fields of a partial update; nil means unchanged.
type MenuPatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
}

func (p MenuPatch) Empty() bool { return p.Title == nil && p.Description == nil }

type SubmenuInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=1024"`
}

type SubmenuPatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
}

func (p SubmenuPatch) Empty() bool { return p.Title == nil && p.Description == nil }

type DishInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=1024"`
	Price       string `json:"price" validate:"required,numeric"`
}

type DishPatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1024"`
	Price       *string `json:"price" validate:"omitempty,numeric"`
}

func (p DishPatch) Empty() bool { return p.Title == nil && p.Description == nil && p.Price == nil }

// MaxPrice is the largest price a NUMERIC(10,2) column holds.
var MaxPrice = decimal.RequireFromString("99999999.99")

// NormalizePrice renders a decimal price with two fractional digits, rounding
// half away from zero the way NUMERIC(10,2) does. Negative prices and prices
// above MaxPrice are rejected.
func NormalizePrice(s string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("price %q is not a decimal", s)
	}
	if d.Sign() < 0 {
		return "", fmt.Errorf("price %q must not be negative", s)
	}
	d = d.Round(2)
	if d.GreaterThan(MaxPrice) {
		return "", fmt.Errorf("price %q exceeds %s", s, MaxPrice.StringFixed(2))
	}
	return d.StringFixed(2), nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

const kindDish = "dish"

// ErrInvalidPrice wraps a price that is not a non-negative decimal within
// model.MaxPrice.
var ErrInvalidPrice = errors.New("invalid price")

type DishService struct {
	store store.DishStore
	cache *coordinator.Coordinator
	log   menucache.Logger
}

// Create reports a missing parent as a submenu NotFoundError.
func (s *DishService) Create(ctx context.Context, menuID, submenuID uuid.UUID, in model.DishInput) (model.Dish, error) {
	price, err := model.NormalizePrice(in.Price)
	if err != nil {
		return model.Dish{}, fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	}
	in.Price = price
	d, err := s.store.CreateDish(ctx, menuID, submenuID, in)
	if err != nil {
		return model.Dish{}, notFound(kindSubmenu, err)
	}
	s.cache.Apply(ctx, coordinator.Mutation{
		Op: coordinator.OpCreate, Entity: coordinator.EntityDish,
		MenuID: menuID, SubmenuID: submenuID, DishID: d.ID,
	})
	return d, nil
}

func (s *DishService) Get(ctx context.Context, menuID, submenuID, id uuid.UUID) (model.Dish, error) {
	d, err := s.cache.Dish(ctx, menuID, submenuID, id, func(ctx context.Context) (model.Dish, error) {
		return s.store.GetDish(ctx, menuID, submenuID, id)
	})
	return d, notFound(kindDish, err)
}

func (s *DishService) List(ctx context.Context, menuID, submenuID uuid.UUID, offset, limit int) ([]model.Dish, error) {
	return s.cache.Dishes(ctx, menuID, submenuID, offset, limit, func(ctx context.Context) ([]model.Dish, error) {
		return s.store.ListDishes(ctx, menuID, submenuID, offset, limit)
	})
}

func (s *DishService) Update(ctx context.Context, menuID, submenuID, id uuid.UUID, p model.DishPatch) (model.Dish, error) {
	if p.Empty() {
		return model.Dish{}, ErrEmptyUpdate
	}
	if p.Price != nil {
		price, err := model.NormalizePrice(*p.Price)
		if err != nil {
			return model.Dish{}, fmt.Errorf("%w: %w", ErrInvalidPrice, err)
		}
		p.Price = &price
	}
	d, err := s.store.UpdateDish(ctx, menuID, submenuID, id, p)
	if err != nil {
		return model.Dish{}, notFound(kindDish, err)
	}
	s.cache.Apply(ctx, coordinator.Mutation{
		Op: coordinator.OpUpdate, Entity: coordinator.EntityDish,
		MenuID: menuID, SubmenuID: submenuID, DishID: id, Dish: &d,
	})
	return d, nil
}

func (s *DishService) Delete(ctx context.Context, menuID, submenuID, id uuid.UUID) error {
	if err := s.store.DeleteDish(ctx, menuID, submenuID, id); err != nil {
		return notFound(kindDish, err)
	}
	s.log.Debug("dish deleted", menucache.Fields{"id": id})
	s.cache.Apply(ctx, coordinator.Mutation{
		Op: coordinator.OpDelete, Entity: coordinator.EntityDish,
		MenuID: menuID, SubmenuID: submenuID, DishID: id,
	})
	return nil
}

package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

const kindSubmenu = "submenu"

type SubmenuService struct {
	store store.SubmenuStore
	cache *coordinator.Coordinator
	log   menucache.Logger
}

// Create reports a missing parent menu as a menu NotFoundError.
func (s *SubmenuService) Create(ctx context.Context, menuID uuid.UUID, in model.SubmenuInput) (model.Submenu, error) {
	sm, err := s.store.CreateSubmenu(ctx, menuID, in)
	if err != nil {
		return model.Submenu{}, notFound(kindMenu, err)
	}
	s.cache.Apply(ctx, coordinator.Mutation{
		Op: coordinator.OpCreate, Entity: coordinator.EntitySubmenu,
		MenuID: menuID, SubmenuID: sm.ID,
	})
	return sm, nil
}

func (s *SubmenuService) Get(ctx context.Context, menuID, id uuid.UUID) (model.Submenu, error) {
	sm, err := s.cache.Submenu(ctx, menuID, id, func(ctx context.Context) (model.Submenu, error) {
		return s.store.GetSubmenu(ctx, menuID, id)
	})
	return sm, notFound(kindSubmenu, err)
}

func (s *SubmenuService) List(ctx context.Context, menuID uuid.UUID, offset, limit int) ([]model.Submenu, error) {
	return s.cache.Submenus(ctx, menuID, offset, limit, func(ctx context.Context) ([]model.Submenu, error) {
		return s.store.ListSubmenus(ctx, menuID, offset, limit)
	})
}

func (s *SubmenuService) Update(ctx context.Context, menuID, id uuid.UUID, p model.SubmenuPatch) (model.Submenu, error) {
	if p.Empty() {
		return model.Submenu{}, ErrEmptyUpdate
	}
	sm, err := s.store.UpdateSubmenu(ctx, menuID, id, p)
	if err != nil {
		return model.Submenu{}, notFound(kindSubmenu, err)
	}
	s.cache.Apply(ctx, coordinator.Mutation{
		Op: coordinator.OpUpdate, Entity: coordinator.EntitySubmenu,
		MenuID: menuID, SubmenuID: id, Submenu: &sm,
	})
	return sm, nil
}

func (s *SubmenuService) Delete(ctx context.Context, menuID, id uuid.UUID) error {
	c, err := s.store.DeleteSubmenu(ctx, menuID, id)
	if err != nil {
		return notFound(kindSubmenu, err)
	}
	s.log.Debug("submenu deleted", menucache.Fields{"id": id, "dishes": len(c.Dishes)})
	s.cache.Apply(ctx, coordinator.Mutation{
		Op: coordinator.OpDelete, Entity: coordinator.EntitySubmenu,
		MenuID: menuID, SubmenuID: id, Cascade: c,
	})
	return nil
}

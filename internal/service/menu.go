package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

const kindMenu = "menu"

type MenuService struct {
	store store.MenuStore
	cache *coordinator.Coordinator
	log   menucache.Logger
}

func (s *MenuService) Create(ctx context.Context, in model.MenuInput) (model.Menu, error) {
	m, err := s.store.CreateMenu(ctx, in)
	if err != nil {
		return model.Menu{}, err
	}
	s.cache.Apply(ctx, coordinator.Mutation{Op: coordinator.OpCreate, Entity: coordinator.EntityMenu, MenuID: m.ID})
	return m, nil
}

func (s *MenuService) Get(ctx context.Context, id uuid.UUID) (model.Menu, error) {
	m, err := s.cache.Menu(ctx, id, func(ctx context.Context) (model.Menu, error) {
		return s.store.GetMenu(ctx, id)
	})
	return m, notFound(kindMenu, err)
}

func (s *MenuService) List(ctx context.Context, offset, limit int) ([]model.Menu, error) {
	return s.cache.Menus(ctx, offset, limit, func(ctx context.Context) ([]model.Menu, error) {
		return s.store.ListMenus(ctx, offset, limit)
	})
}

func (s *MenuService) Update(ctx context.Context, id uuid.UUID, p model.MenuPatch) (model.Menu, error) {
	if p.Empty() {
		return model.Menu{}, ErrEmptyUpdate
	}
	m, err := s.store.UpdateMenu(ctx, id, p)
	if err != nil {
		return model.Menu{}, notFound(kindMenu, err)
	}
	s.cache.Apply(ctx, coordinator.Mutation{Op: coordinator.OpUpdate, Entity: coordinator.EntityMenu, MenuID: id, Menu: &m})
	return m, nil
}

func (s *MenuService) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.store.DeleteMenu(ctx, id)
	if err != nil {
		return notFound(kindMenu, err)
	}
	s.log.Debug("menu deleted", menucache.Fields{"id": id, "submenus": len(c.Submenus), "dishes": len(c.Dishes)})
	s.cache.Apply(ctx, coordinator.Mutation{Op: coordinator.OpDelete, Entity: coordinator.EntityMenu, MenuID: id, Cascade: c})
	return nil
}

package service

import (
	"context"

	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

// FullMenuService serves the nested menu → submenu → dish listing.
type FullMenuService struct {
	store store.TreeStore
	cache *coordinator.Coordinator
}

func (s *FullMenuService) List(ctx context.Context, offset, limit int) ([]model.MenuTree, error) {
	return s.cache.Full(ctx, offset, limit, func(ctx context.Context) ([]model.MenuTree, error) {
		return s.store.ListFull(ctx, offset, limit)
	})
}

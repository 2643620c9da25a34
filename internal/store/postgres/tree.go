package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/unkn0wn-root/menucache/internal/model"
)

type parented[T any] struct {
	parent uuid.UUID
	v      T
}

// ListFull pages menus and loads their subtrees with two more queries.
func (s *Store) ListFull(ctx context.Context, offset, limit int) ([]model.MenuTree, error) {
	menus, err := s.ListMenus(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if len(menus) == 0 {
		return []model.MenuTree{}, nil
	}
	menuIDs := make([]uuid.UUID, len(menus))
	for i, m := range menus {
		menuIDs[i] = m.ID
	}

	rows, err := s.pool.Query(ctx, `
		SELECT s.menu_id, s.id, s.title, s.description, COUNT(DISTINCT d.id)
		FROM submenu s
		LEFT JOIN dish d ON d.submenu_id = s.id
		WHERE s.menu_id = ANY($1)
		GROUP BY s.id
		ORDER BY s.title, s.id`, menuIDs)
	if err != nil {
		return nil, fmt.Errorf("list full submenus: %w", err)
	}
	subs, err := collect(rows, func(r pgx.Row) (parented[model.SubmenuTree], error) {
		var p parented[model.SubmenuTree]
		err := r.Scan(&p.parent, &p.v.ID, &p.v.Title, &p.v.Description, &p.v.DishesCount)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	subIDs := make([]uuid.UUID, len(subs))
	for i, sm := range subs {
		subIDs[i] = sm.v.ID
	}
	rows, err = s.pool.Query(ctx, `
		SELECT submenu_id, id, title, description, price::text
		FROM dish
		WHERE submenu_id = ANY($1)
		ORDER BY title, id`, subIDs)
	if err != nil {
		return nil, fmt.Errorf("list full dishes: %w", err)
	}
	dishes, err := collect(rows, func(r pgx.Row) (parented[model.Dish], error) {
		var p parented[model.Dish]
		err := r.Scan(&p.parent, &p.v.ID, &p.v.Title, &p.v.Description, &p.v.Price)
		return p, err
	})
	if err != nil {
		return nil, err
	}

	dishesBySub := map[uuid.UUID][]model.Dish{}
	for _, d := range dishes {
		dishesBySub[d.parent] = append(dishesBySub[d.parent], d.v)
	}
	subsByMenu := map[uuid.UUID][]model.SubmenuTree{}
	for _, sm := range subs {
		st := sm.v
		st.Dishes = dishesBySub[st.ID]
		if st.Dishes == nil {
			st.Dishes = []model.Dish{}
		}
		subsByMenu[sm.parent] = append(subsByMenu[sm.parent], st)
	}

	out := make([]model.MenuTree, len(menus))
	for i, m := range menus {
		out[i] = model.MenuTree{Menu: m, Submenus: subsByMenu[m.ID]}
		if out[i].Submenus == nil {
			out[i].Submenus = []model.SubmenuTree{}
		}
	}
	return out, nil
}

// ReplaceAll deletes every menu (children cascade) and inserts menus in one
// transaction.
func (s *Store) ReplaceAll(ctx context.Context, menus []model.MenuTree) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM menu`); err != nil {
			return fmt.Errorf("clear menus: %w", err)
		}
		b := &pgx.Batch{}
		for _, m := range menus {
			mid := idOrNew(m.ID)
			b.Queue(`INSERT INTO menu (id, title, description) VALUES ($1, $2, $3)`,
				mid, m.Title, m.Description)
			for _, sm := range m.Submenus {
				sid := idOrNew(sm.ID)
				b.Queue(`INSERT INTO submenu (id, menu_id, title, description) VALUES ($1, $2, $3, $4)`,
					sid, mid, sm.Title, sm.Description)
				for _, d := range sm.Dishes {
					b.Queue(`INSERT INTO dish (id, submenu_id, title, description, price)
						VALUES ($1, $2, $3, $4, $5::text::numeric)`,
						idOrNew(d.ID), sid, d.Title, d.Description, d.Price)
				}
			}
		}
		if b.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert hierarchy: %w", err)
		}
		return nil
	})
}

func idOrNew(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

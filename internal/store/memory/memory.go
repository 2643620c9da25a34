// Package memory is an in-process store.Store used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

type menuRec struct {
	id                 uuid.UUID
	title, description string
}

type submenuRec struct {
	id, menuID         uuid.UUID
	title, description string
}

type dishRec struct {
	id, submenuID             uuid.UUID
	title, description, price string
}

type Store struct {
	mu       sync.RWMutex
	menus    map[uuid.UUID]*menuRec
	submenus map[uuid.UUID]*submenuRec
	dishes   map[uuid.UUID]*dishRec
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		menus:    map[uuid.UUID]*menuRec{},
		submenus: map[uuid.UUID]*submenuRec{},
		dishes:   map[uuid.UUID]*dishRec{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

// Menus

func (s *Store) CreateMenu(_ context.Context, in model.MenuInput) (model.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &menuRec{id: uuid.New(), title: in.Title, description: in.Description}
	s.menus[r.id] = r
	return s.menuLocked(r), nil
}

func (s *Store) GetMenu(_ context.Context, id uuid.UUID) (model.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.menus[id]
	if !ok {
		return model.Menu{}, store.ErrNotFound
	}
	return s.menuLocked(r), nil
}

func (s *Store) ListMenus(_ context.Context, offset, limit int) ([]model.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*menuRec, 0, len(s.menus))
	for _, r := range s.menus {
		recs = append(recs, r)
	}
	sortByTitle(recs, func(r *menuRec) (string, uuid.UUID) { return r.title, r.id })
	out := make([]model.Menu, 0)
	for _, r := range page(recs, offset, limit) {
		out = append(out, s.menuLocked(r))
	}
	return out, nil
}

func (s *Store) UpdateMenu(_ context.Context, id uuid.UUID, p model.MenuPatch) (model.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.menus[id]
	if !ok {
		return model.Menu{}, store.ErrNotFound
	}
	set(&r.title, p.Title)
	set(&r.description, p.Description)
	return s.menuLocked(r), nil
}

func (s *Store) DeleteMenu(_ context.Context, id uuid.UUID) (model.Cascade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[id]; !ok {
		return model.Cascade{}, store.ErrNotFound
	}
	var c model.Cascade
	for _, sm := range s.submenus {
		if sm.menuID == id {
			c.Submenus = append(c.Submenus, sm.id)
			c.Dishes = append(c.Dishes, s.dropDishesLocked(sm.id)...)
			delete(s.submenus, sm.id)
		}
	}
	delete(s.menus, id)
	return c, nil
}

// Submenus

func (s *Store) CreateSubmenu(_ context.Context, menuID uuid.UUID, in model.SubmenuInput) (model.Submenu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[menuID]; !ok {
		return model.Submenu{}, store.ErrNotFound
	}
	r := &submenuRec{id: uuid.New(), menuID: menuID, title: in.Title, description: in.Description}
	s.submenus[r.id] = r
	return s.submenuLocked(r), nil
}

func (s *Store) GetSubmenu(_ context.Context, menuID, id uuid.UUID) (model.Submenu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.scopedSubmenuLocked(menuID, id)
	if err != nil {
		return model.Submenu{}, err
	}
	return s.submenuLocked(r), nil
}

func (s *Store) ListSubmenus(_ context.Context, menuID uuid.UUID, offset, limit int) ([]model.Submenu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.submenusOfLocked(menuID)
	out := make([]model.Submenu, 0)
	for _, r := range page(recs, offset, limit) {
		out = append(out, s.submenuLocked(r))
	}
	return out, nil
}

func (s *Store) UpdateSubmenu(_ context.Context, menuID, id uuid.UUID, p model.SubmenuPatch) (model.Submenu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.scopedSubmenuLocked(menuID, id)
	if err != nil {
		return model.Submenu{}, err
	}
	set(&r.title, p.Title)
	set(&r.description, p.Description)
	return s.submenuLocked(r), nil
}

func (s *Store) DeleteSubmenu(_ context.Context, menuID, id uuid.UUID) (model.Cascade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.scopedSubmenuLocked(menuID, id); err != nil {
		return model.Cascade{}, err
	}
	c := model.Cascade{Dishes: s.dropDishesLocked(id)}
	delete(s.submenus, id)
	return c, nil
}

// Dishes

func (s *Store) CreateDish(_ context.Context, menuID, submenuID uuid.UUID, in model.DishInput) (model.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.scopedSubmenuLocked(menuID, submenuID); err != nil {
		return model.Dish{}, err
	}
	r := &dishRec{id: uuid.New(), submenuID: submenuID, title: in.Title, description: in.Description, price: in.Price}
	s.dishes[r.id] = r
	return dishOf(r), nil
}

func (s *Store) GetDish(_ context.Context, menuID, submenuID, id uuid.UUID) (model.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.scopedDishLocked(menuID, submenuID, id)
	if err != nil {
		return model.Dish{}, err
	}
	return dishOf(r), nil
}

func (s *Store) ListDishes(_ context.Context, menuID, submenuID uuid.UUID, offset, limit int) ([]model.Dish, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Dish, 0)
	if sm, ok := s.submenus[submenuID]; !ok || sm.menuID != menuID {
		return out, nil
	}
	for _, r := range page(s.dishesOfLocked(submenuID), offset, limit) {
		out = append(out, dishOf(r))
	}
	return out, nil
}

func (s *Store) UpdateDish(_ context.Context, menuID, submenuID, id uuid.UUID, p model.DishPatch) (model.Dish, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.scopedDishLocked(menuID, submenuID, id)
	if err != nil {
		return model.Dish{}, err
	}
	set(&r.title, p.Title)
	set(&r.description, p.Description)
	set(&r.price, p.Price)
	return dishOf(r), nil
}

func (s *Store) DeleteDish(_ context.Context, menuID, submenuID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.scopedDishLocked(menuID, submenuID, id); err != nil {
		return err
	}
	delete(s.dishes, id)
	return nil
}

// Tree

func (s *Store) ListFull(ctx context.Context, offset, limit int) ([]model.MenuTree, error) {
	menus, err := s.ListMenus(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MenuTree, 0, len(menus))
	for _, m := range menus {
		t := model.MenuTree{Menu: m, Submenus: []model.SubmenuTree{}}
		for _, sr := range s.submenusOfLocked(m.ID) {
			st := model.SubmenuTree{Submenu: s.submenuLocked(sr), Dishes: []model.Dish{}}
			for _, dr := range s.dishesOfLocked(sr.id) {
				st.Dishes = append(st.Dishes, dishOf(dr))
			}
			t.Submenus = append(t.Submenus, st)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) ReplaceAll(_ context.Context, menus []model.MenuTree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus = map[uuid.UUID]*menuRec{}
	s.submenus = map[uuid.UUID]*submenuRec{}
	s.dishes = map[uuid.UUID]*dishRec{}
	for _, m := range menus {
		mid := idOrNew(m.ID)
		s.menus[mid] = &menuRec{id: mid, title: m.Title, description: m.Description}
		for _, sm := range m.Submenus {
			sid := idOrNew(sm.ID)
			s.submenus[sid] = &submenuRec{id: sid, menuID: mid, title: sm.Title, description: sm.Description}
			for _, d := range sm.Dishes {
				did := idOrNew(d.ID)
				s.dishes[did] = &dishRec{id: did, submenuID: sid, title: d.Title, description: d.Description, price: d.Price}
			}
		}
	}
	return nil
}

// helpers; callers hold s.mu

func (s *Store) menuLocked(r *menuRec) model.Menu {
	m := model.Menu{ID: r.id, Title: r.title, Description: r.description}
	for _, sm := range s.submenus {
		if sm.menuID == r.id {
			m.SubmenusCount++
			m.DishesCount += len(s.dishesOfLocked(sm.id))
		}
	}
	return m
}

func (s *Store) submenuLocked(r *submenuRec) model.Submenu {
	return model.Submenu{
		ID:          r.id,
		Title:       r.title,
		Description: r.description,
		DishesCount: len(s.dishesOfLocked(r.id)),
	}
}

func dishOf(r *dishRec) model.Dish {
	return model.Dish{ID: r.id, Title: r.title, Description: r.description, Price: r.price}
}

func (s *Store) scopedSubmenuLocked(menuID, id uuid.UUID) (*submenuRec, error) {
	r, ok := s.submenus[id]
	if !ok || r.menuID != menuID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) scopedDishLocked(menuID, submenuID, id uuid.UUID) (*dishRec, error) {
	if _, err := s.scopedSubmenuLocked(menuID, submenuID); err != nil {
		return nil, err
	}
	r, ok := s.dishes[id]
	if !ok || r.submenuID != submenuID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

func (s *Store) submenusOfLocked(menuID uuid.UUID) []*submenuRec {
	var recs []*submenuRec
	for _, r := range s.submenus {
		if r.menuID == menuID {
			recs = append(recs, r)
		}
	}
	sortByTitle(recs, func(r *submenuRec) (string, uuid.UUID) { return r.title, r.id })
	return recs
}

func (s *Store) dishesOfLocked(submenuID uuid.UUID) []*dishRec {
	var recs []*dishRec
	for _, r := range s.dishes {
		if r.submenuID == submenuID {
			recs = append(recs, r)
		}
	}
	sortByTitle(recs, func(r *dishRec) (string, uuid.UUID) { return r.title, r.id })
	return recs
}

func (s *Store) dropDishesLocked(submenuID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for id, d := range s.dishes {
		if d.submenuID == submenuID {
			ids = append(ids, id)
			delete(s.dishes, id)
		}
	}
	return ids
}

// sortByTitle orders like the SQL store: title, then id.
func sortByTitle[T any](recs []T, key func(T) (string, uuid.UUID)) {
	sort.Slice(recs, func(i, j int) bool {
		ti, ii := key(recs[i])
		tj, ij := key(recs[j])
		if ti != tj {
			return ti < tj
		}
		return ii.String() < ij.String()
	})
}

func page[T any](recs []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(recs) {
		return nil
	}
	recs = recs[offset:]
	if limit >= 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func idOrNew(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

func seed(t *testing.T, s *Store) (model.Menu, model.Submenu, model.Dish) {
	t.Helper()
	ctx := context.Background()
	m, err := s.CreateMenu(ctx, model.MenuInput{Title: "Lunch", Description: "noon"})
	require.NoError(t, err)
	sm, err := s.CreateSubmenu(ctx, m.ID, model.SubmenuInput{Title: "Soups", Description: "hot"})
	require.NoError(t, err)
	d, err := s.CreateDish(ctx, m.ID, sm.ID, model.DishInput{Title: "Borscht", Description: "red", Price: "12.50"})
	require.NoError(t, err)
	return m, sm, d
}

func TestCountsFollowHierarchy(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, d := seed(t, s)

	got, err := s.GetMenu(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SubmenusCount)
	assert.Equal(t, 1, got.DishesCount)

	gsm, err := s.GetSubmenu(ctx, m.ID, sm.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gsm.DishesCount)

	require.NoError(t, s.DeleteDish(ctx, m.ID, sm.ID, d.ID))
	got, err = s.GetMenu(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SubmenusCount)
	assert.Equal(t, 0, got.DishesCount)
}

func TestScopeMismatchIsNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, d := seed(t, s)
	other, err := s.CreateMenu(ctx, model.MenuInput{Title: "Dinner", Description: "late"})
	require.NoError(t, err)

	_, err = s.GetSubmenu(ctx, other.ID, sm.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetDish(ctx, other.ID, sm.ID, d.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.CreateDish(ctx, other.ID, sm.ID, model.DishInput{Title: "x", Description: "y", Price: "1"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.CreateSubmenu(ctx, uuid.New(), model.SubmenuInput{Title: "x", Description: "y"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	dishes, err := s.ListDishes(ctx, other.ID, sm.ID, 0, 50)
	require.NoError(t, err)
	assert.Empty(t, dishes)

	_, err = s.GetDish(ctx, m.ID, sm.ID, d.ID)
	assert.NoError(t, err)
}

func TestDeleteMenuReportsCascade(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, d := seed(t, s)

	c, err := s.DeleteMenu(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sm.ID}, c.Submenus)
	assert.Equal(t, []uuid.UUID{d.ID}, c.Dishes)

	_, err = s.GetSubmenu(ctx, m.ID, sm.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.DeleteMenu(ctx, m.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateAppliesOnlySetFields(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, sm, d := seed(t, s)

	title := "Starters"
	got, err := s.UpdateSubmenu(ctx, m.ID, sm.ID, model.SubmenuPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Starters", got.Title)
	assert.Equal(t, "hot", got.Description)
	assert.Equal(t, 1, got.DishesCount)

	price := "9.99"
	gd, err := s.UpdateDish(ctx, m.ID, sm.ID, d.ID, model.DishPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "9.99", gd.Price)
	assert.Equal(t, "Borscht", gd.Title)
}

func TestListPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, title := range []string{"c", "a", "b"} {
		_, err := s.CreateMenu(ctx, model.MenuInput{Title: title, Description: "-"})
		require.NoError(t, err)
	}

	all, err := s.ListMenus(ctx, 0, 50)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Title)

	pg, err := s.ListMenus(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, pg, 1)
	assert.Equal(t, "b", pg[0].Title)

	none, err := s.ListMenus(ctx, 10, 5)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReplaceAllAndListFull(t *testing.T) {
	ctx := context.Background()
	s := New()
	seed(t, s)

	tree := []model.MenuTree{{
		Menu: model.Menu{Title: "Breakfast", Description: "early"},
		Submenus: []model.SubmenuTree{{
			Submenu: model.Submenu{Title: "Eggs", Description: "any style"},
			Dishes: []model.Dish{
				{Title: "Omelette", Description: "3 eggs", Price: "5.00"},
				{Title: "Benedict", Description: "hollandaise", Price: "7.50"},
			},
		}},
	}}
	require.NoError(t, s.ReplaceAll(ctx, tree))

	full, err := s.ListFull(ctx, 0, 50)
	require.NoError(t, err)
	require.Len(t, full, 1)
	assert.Equal(t, "Breakfast", full[0].Title)
	assert.NotEqual(t, uuid.Nil, full[0].ID)
	assert.Equal(t, 1, full[0].SubmenusCount)
	assert.Equal(t, 2, full[0].DishesCount)
	require.Len(t, full[0].Submenus, 1)
	assert.Equal(t, 2, full[0].Submenus[0].DishesCount)
	assert.Equal(t, "Benedict", full[0].Submenus[0].Dishes[0].Title)
}

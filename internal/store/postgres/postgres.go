// Package postgres implements store.Store on PostgreSQL through pgx.
//
// Counts are computed in the same query that reads the entity, by outer-joining
// submenu on menu and dish on submenu and counting distinct ids.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/store"
)

// SQLSTATE foreign_key_violation
const fkViolation = "23503"

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *Store) Close()                         { s.pool.Close() }

// mapErr turns "no row" and FK violations into store.ErrNotFound.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
		return store.ErrNotFound
	}
	return err
}

const menuSelect = `
	SELECT m.id, m.title, m.description,
	       COUNT(DISTINCT s.id) AS submenus_count,
	       COUNT(DISTINCT d.id) AS dishes_count
	FROM menu m
	LEFT JOIN submenu s ON s.menu_id = m.id
	LEFT JOIN dish d ON d.submenu_id = s.id`

const submenuSelect = `
	SELECT s.id, s.title, s.description, COUNT(DISTINCT d.id) AS dishes_count
	FROM submenu s
	LEFT JOIN dish d ON d.submenu_id = s.id`

const dishSelect = `
	SELECT d.id, d.title, d.description, d.price::text
	FROM dish d
	JOIN submenu s ON s.id = d.submenu_id`

func scanMenu(row pgx.Row) (model.Menu, error) {
	var m model.Menu
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.SubmenusCount, &m.DishesCount)
	return m, err
}

func scanSubmenu(row pgx.Row) (model.Submenu, error) {
	var sm model.Submenu
	err := row.Scan(&sm.ID, &sm.Title, &sm.Description, &sm.DishesCount)
	return sm, err
}

func scanDish(row pgx.Row) (model.Dish, error) {
	var d model.Dish
	err := row.Scan(&d.ID, &d.Title, &d.Description, &d.Price)
	return d, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Menus

func (s *Store) CreateMenu(ctx context.Context, in model.MenuInput) (model.Menu, error) {
	m := model.Menu{ID: uuid.New(), Title: in.Title, Description: in.Description}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO menu (id, title, description) VALUES ($1, $2, $3)`,
		m.ID, m.Title, m.Description)
	if err != nil {
		return model.Menu{}, fmt.Errorf("create menu: %w", err)
	}
	return m, nil
}

func (s *Store) GetMenu(ctx context.Context, id uuid.UUID) (model.Menu, error) {
	m, err := scanMenu(s.pool.QueryRow(ctx, menuSelect+`
		WHERE m.id = $1
		GROUP BY m.id`, id))
	if err != nil {
		return model.Menu{}, mapErr(err)
	}
	return m, nil
}

func (s *Store) ListMenus(ctx context.Context, offset, limit int) ([]model.Menu, error) {
	rows, err := s.pool.Query(ctx, menuSelect+`
		GROUP BY m.id
		ORDER BY m.title, m.id
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list menus: %w", err)
	}
	return collect(rows, scanMenu)
}

func (s *Store) UpdateMenu(ctx context.Context, id uuid.UUID, p model.MenuPatch) (model.Menu, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE menu
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description)
		WHERE id = $1`, id, p.Title, p.Description)
	if err != nil {
		return model.Menu{}, fmt.Errorf("update menu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Menu{}, store.ErrNotFound
	}
	return s.GetMenu(ctx, id)
}

func (s *Store) DeleteMenu(ctx context.Context, id uuid.UUID) (model.Cascade, error) {
	var c model.Cascade
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if c.Submenus, err = ids(ctx, tx,
			`SELECT id FROM submenu WHERE menu_id = $1`, id); err != nil {
			return err
		}
		if c.Dishes, err = ids(ctx, tx,
			`SELECT d.id FROM dish d JOIN submenu s ON s.id = d.submenu_id WHERE s.menu_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM menu WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return model.Cascade{}, mapErr(err)
	}
	return c, nil
}

// Submenus

func (s *Store) CreateSubmenu(ctx context.Context, menuID uuid.UUID, in model.SubmenuInput) (model.Submenu, error) {
	sm := model.Submenu{ID: uuid.New(), Title: in.Title, Description: in.Description}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO submenu (id, menu_id, title, description)
		SELECT $1::uuid, m.id, $3::text, $4::text FROM menu m WHERE m.id = $2`,
		sm.ID, menuID, sm.Title, sm.Description)
	if err != nil {
		return model.Submenu{}, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return model.Submenu{}, store.ErrNotFound
	}
	return sm, nil
}

func (s *Store) GetSubmenu(ctx context.Context, menuID, id uuid.UUID) (model.Submenu, error) {
	sm, err := scanSubmenu(s.pool.QueryRow(ctx, submenuSelect+`
		WHERE s.menu_id = $1 AND s.id = $2
		GROUP BY s.id`, menuID, id))
	if err != nil {
		return model.Submenu{}, mapErr(err)
	}
	return sm, nil
}

func (s *Store) ListSubmenus(ctx context.Context, menuID uuid.UUID, offset, limit int) ([]model.Submenu, error) {
	rows, err := s.pool.Query(ctx, submenuSelect+`
		WHERE s.menu_id = $1
		GROUP BY s.id
		ORDER BY s.title, s.id
		OFFSET $2 LIMIT $3`, menuID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list submenus: %w", err)
	}
	return collect(rows, scanSubmenu)
}

func (s *Store) UpdateSubmenu(ctx context.Context, menuID, id uuid.UUID, p model.SubmenuPatch) (model.Submenu, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE submenu
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description)
		WHERE menu_id = $1 AND id = $2`, menuID, id, p.Title, p.Description)
	if err != nil {
		return model.Submenu{}, fmt.Errorf("update submenu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Submenu{}, store.ErrNotFound
	}
	return s.GetSubmenu(ctx, menuID, id)
}

func (s *Store) DeleteSubmenu(ctx context.Context, menuID, id uuid.UUID) (model.Cascade, error) {
	var c model.Cascade
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		if c.Dishes, err = ids(ctx, tx, `SELECT id FROM dish WHERE submenu_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM submenu WHERE menu_id = $1 AND id = $2`, menuID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return model.Cascade{}, mapErr(err)
	}
	return c, nil
}

// Dishes

func (s *Store) CreateDish(ctx context.Context, menuID, submenuID uuid.UUID, in model.DishInput) (model.Dish, error) {
	d, err := scanDish(s.pool.QueryRow(ctx, `
		INSERT INTO dish (id, submenu_id, title, description, price)
		SELECT $1::uuid, s.id, $4::text, $5::text, $6::text::numeric
		FROM submenu s WHERE s.id = $3 AND s.menu_id = $2
		RETURNING id, title, description, price::text`,
		uuid.New(), menuID, submenuID, in.Title, in.Description, in.Price))
	if err != nil {
		return model.Dish{}, mapErr(err)
	}
	return d, nil
}

func (s *Store) GetDish(ctx context.Context, menuID, submenuID, id uuid.UUID) (model.Dish, error) {
	d, err := scanDish(s.pool.QueryRow(ctx, dishSelect+`
		WHERE s.menu_id = $1 AND d.submenu_id = $2 AND d.id = $3`, menuID, submenuID, id))
	if err != nil {
		return model.Dish{}, mapErr(err)
	}
	return d, nil
}

func (s *Store) ListDishes(ctx context.Context, menuID, submenuID uuid.UUID, offset, limit int) ([]model.Dish, error) {
	rows, err := s.pool.Query(ctx, dishSelect+`
		WHERE s.menu_id = $1 AND d.submenu_id = $2
		ORDER BY d.title, d.id
		OFFSET $3 LIMIT $4`, menuID, submenuID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	return collect(rows, scanDish)
}

func (s *Store) UpdateDish(ctx context.Context, menuID, submenuID, id uuid.UUID, p model.DishPatch) (model.Dish, error) {
	d, err := scanDish(s.pool.QueryRow(ctx, `
		UPDATE dish d
		SET title = COALESCE($4, d.title),
		    description = COALESCE($5, d.description),
		    price = COALESCE($6::text::numeric, d.price)
		FROM submenu s
		WHERE s.id = d.submenu_id AND s.menu_id = $1 AND d.submenu_id = $2 AND d.id = $3
		RETURNING d.id, d.title, d.description, d.price::text`,
		menuID, submenuID, id, p.Title, p.Description, p.Price))
	if err != nil {
		return model.Dish{}, mapErr(err)
	}
	return d, nil
}

func (s *Store) DeleteDish(ctx context.Context, menuID, submenuID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM dish d
		USING submenu s
		WHERE s.id = d.submenu_id AND s.menu_id = $1 AND d.submenu_id = $2 AND d.id = $3`,
		menuID, submenuID, id)
	if err != nil {
		return fmt.Errorf("delete dish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func ids(ctx context.Context, tx pgx.Tx, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r pgx.Row) (uuid.UUID, error) {
		var id uuid.UUID
		err := r.Scan(&id)
		return id, err
	})
}

package postgres

import (
	"context"
	"errors"

	"github.com/cityagenda/event-platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Users and categories are owned by the surrounding CRUD; this module only
// validates references against them.

func (r *Repository) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound("user not found")
	}
	return u, err
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrNotFound("category not found")
	}
	return c, err
}

package postgres

import (
	"context"
	"errors"

	"github.com/gatherspace/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
)

var _ users.Repository = (*UserRepository)(nil)

const userColumns = `id, username, email, password_hash, created_at`

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (id, username, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING `+userColumns,
		params.ID, params.Username, params.Email, params.PasswordHash)

	user, err := scanUser(row)
	if err != nil {
		if uniqueViolation(err, "users_email_key") {
			return nil, users.ErrEmailTaken
		}
		if uniqueViolation(err, "users_username_key") {
			return nil, users.ErrUsernameTaken
		}
		return nil, wrapErr("insert user", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getBy(ctx, `id`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.getBy(ctx, `email`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.getBy(ctx, `username`, username)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, wrapErr("get user", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

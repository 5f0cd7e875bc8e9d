package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName, timezone string) (string, error) {
	var id string
	var name *string
	if strings.TrimSpace(fullName) != "" {
		name = &fullName
	}
	if timezone == "" {
		timezone = "UTC"
	}
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, full_name, timezone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		strings.ToLower(strings.TrimSpace(email)), passwordHash, name, timezone,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := r.Pool.QueryRow(ctx,
		`SELECT id, password_hash FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.Pool.QueryRow(ctx,
		`SELECT id, email, full_name, timezone, created_at, last_seen_at
		 FROM users WHERE id = $1::uuid`,
		id,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Timezone, &u.CreatedAt, &u.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, fullName, timezone *string) (*User, error) {
	var u User
	err := r.Pool.QueryRow(ctx,
		`UPDATE users
		 SET full_name = COALESCE($2, full_name),
		     timezone  = COALESCE($3, timezone)
		 WHERE id = $1::uuid
		 RETURNING id, email, full_name, timezone, created_at, last_seen_at`,
		id, fullName, timezone,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.Timezone, &u.CreatedAt, &u.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) PasswordHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := r.Pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1::uuid`, id).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return hash, err
}

func (r *Repository) SetPasswordHash(ctx context.Context, id, hash string) error {
	_, err := r.Pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1::uuid`, id, hash)
	return err
}

// Delete removes the account. Children, shares, tracking records and
// notifications cascade at the database level.
func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1::uuid`, id)
	return err
}

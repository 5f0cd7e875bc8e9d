package diapers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TypeWet   = "wet"
	TypeDirty = "dirty"
	TypeBoth  = "both"
)

var ErrNotFound = errors.New("diaper change not found")

type DiaperChange struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"child_id"`
	ChangeType string    `json:"change_type"`
	ChangedAt  time.Time `json:"changed_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Request struct {
	ChangeType string `json:"change_type"`
	ChangedAt  string `json:"changed_at"`
}

func (r *Request) Validate() (time.Time, error) {
	switch r.ChangeType {
	case TypeWet, TypeDirty, TypeBoth:
	default:
		return time.Time{}, errors.New("change_type must be 'wet', 'dirty' or 'both'")
	}
	changedAt, err := time.Parse(time.RFC3339, r.ChangedAt)
	if err != nil {
		return time.Time{}, errors.New("changed_at must be an RFC3339 timestamp")
	}
	return changedAt, nil
}

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

const columns = `id, child_id, change_type, changed_at, created_at, updated_at`

func scan(row pgx.Row) (*DiaperChange, error) {
	var d DiaperChange
	err := row.Scan(&d.ID, &d.ChildID, &d.ChangeType, &d.ChangedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, childID string, req Request) (*DiaperChange, error) {
	changedAt, err := req.Validate()
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO diaper_changes (child_id, change_type, changed_at)
	      VALUES ($1::uuid, $2, $3)
	      RETURNING ` + columns
	if tx != nil {
		return scan(tx.QueryRow(ctx, q, childID, req.ChangeType, changedAt))
	}
	return scan(r.Pool.QueryRow(ctx, q, childID, req.ChangeType, changedAt))
}

func (r *Repository) Get(ctx context.Context, childID, id string) (*DiaperChange, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scan(r.Pool.QueryRow(ctx,
		`SELECT `+columns+` FROM diaper_changes WHERE id = $1::uuid AND child_id = $2::uuid`,
		id, childID))
}

func (r *Repository) Update(ctx context.Context, childID, id string, req Request) (*DiaperChange, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	changedAt, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return scan(r.Pool.QueryRow(ctx,
		`UPDATE diaper_changes
		 SET change_type = $3, changed_at = $4, updated_at = NOW()
		 WHERE id = $1::uuid AND child_id = $2::uuid
		 RETURNING `+columns,
		id, childID, req.ChangeType, changedAt))
}

func (r *Repository) Delete(ctx context.Context, childID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM diaper_changes WHERE id = $1::uuid AND child_id = $2::uuid`, id, childID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, childID string, from, to *time.Time, limit int) ([]DiaperChange, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT `+columns+` FROM diaper_changes
		 WHERE child_id = $1::uuid
		   AND ($2::timestamptz IS NULL OR changed_at >= $2)
		   AND ($3::timestamptz IS NULL OR changed_at < $3)
		 ORDER BY changed_at DESC
		 LIMIT $4`,
		childID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DiaperChange{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

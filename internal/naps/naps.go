package naps

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("nap not found")

type Nap struct {
	ID        string     `json:"id"`
	ChildID   string     `json:"child_id"`
	NappedAt  time.Time  `json:"napped_at"`
	EndedAt   *time.Time `json:"ended_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DurationMinutes reports the nap length, or nil while the nap is open.
func (n *Nap) DurationMinutes() *int {
	if n.EndedAt == nil {
		return nil
	}
	m := int(n.EndedAt.Sub(n.NappedAt).Minutes())
	return &m
}

type Request struct {
	NappedAt string  `json:"napped_at"`
	EndedAt  *string `json:"ended_at"`
}

func (r *Request) Validate() (nappedAt time.Time, endedAt *time.Time, err error) {
	nappedAt, err = time.Parse(time.RFC3339, r.NappedAt)
	if err != nil {
		return time.Time{}, nil, errors.New("napped_at must be an RFC3339 timestamp")
	}
	if r.EndedAt != nil && *r.EndedAt != "" {
		t, perr := time.Parse(time.RFC3339, *r.EndedAt)
		if perr != nil {
			return time.Time{}, nil, errors.New("ended_at must be an RFC3339 timestamp")
		}
		if !t.After(nappedAt) {
			return time.Time{}, nil, errors.New("ended_at must be after napped_at")
		}
		endedAt = &t
	}
	return nappedAt, endedAt, nil
}

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

const columns = `id, child_id, napped_at, ended_at, created_at, updated_at`

func scan(row pgx.Row) (*Nap, error) {
	var n Nap
	err := row.Scan(&n.ID, &n.ChildID, &n.NappedAt, &n.EndedAt, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, childID string, req Request) (*Nap, error) {
	nappedAt, endedAt, err := req.Validate()
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO naps (child_id, napped_at, ended_at)
	      VALUES ($1::uuid, $2, $3)
	      RETURNING ` + columns
	if tx != nil {
		return scan(tx.QueryRow(ctx, q, childID, nappedAt, endedAt))
	}
	return scan(r.Pool.QueryRow(ctx, q, childID, nappedAt, endedAt))
}

func (r *Repository) Get(ctx context.Context, childID, id string) (*Nap, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scan(r.Pool.QueryRow(ctx,
		`SELECT `+columns+` FROM naps WHERE id = $1::uuid AND child_id = $2::uuid`,
		id, childID))
}

func (r *Repository) Update(ctx context.Context, childID, id string, req Request) (*Nap, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	nappedAt, endedAt, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return scan(r.Pool.QueryRow(ctx,
		`UPDATE naps
		 SET napped_at = $3, ended_at = $4, updated_at = NOW()
		 WHERE id = $1::uuid AND child_id = $2::uuid
		 RETURNING `+columns,
		id, childID, nappedAt, endedAt))
}

func (r *Repository) Delete(ctx context.Context, childID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM naps WHERE id = $1::uuid AND child_id = $2::uuid`, id, childID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, childID string, from, to *time.Time, limit int) ([]Nap, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT `+columns+` FROM naps
		 WHERE child_id = $1::uuid
		   AND ($2::timestamptz IS NULL OR napped_at >= $2)
		   AND ($3::timestamptz IS NULL OR napped_at < $3)
		 ORDER BY napped_at DESC
		 LIMIT $4`,
		childID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Nap{}
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

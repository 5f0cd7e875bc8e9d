package feedings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	TypeBottle = "bottle"
	TypeBreast = "breast"

	MinBottleTenthsOz = 1
	MaxBottleTenthsOz = 500
	MinBreastMinutes  = 1
	MaxBreastMinutes  = 180
)

var ErrNotFound = errors.New("feeding not found")

type Feeding struct {
	ID              string    `json:"id"`
	ChildID         string    `json:"child_id"`
	FeedingType     string    `json:"feeding_type"`
	FedAt           time.Time `json:"fed_at"`
	AmountTenthsOz  *int      `json:"amount_tenths_oz,omitempty"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Side            string    `json:"side,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Request struct {
	FeedingType     string `json:"feeding_type"`
	FedAt           string `json:"fed_at"`
	AmountTenthsOz  *int   `json:"amount_tenths_oz"`
	DurationMinutes *int   `json:"duration_minutes"`
	Side            string `json:"side"`
}

// Validate applies the bottle/breast conditional rules and returns the
// normalized record fields. Fields belonging to the other feeding type are
// cleared rather than rejected, so a client may submit a superset.
func (r *Request) Validate() (fedAt time.Time, amount *int, duration *int, side string, err error) {
	fedAt, err = time.Parse(time.RFC3339, r.FedAt)
	if err != nil {
		return time.Time{}, nil, nil, "", errors.New("fed_at must be an RFC3339 timestamp")
	}

	switch r.FeedingType {
	case TypeBottle:
		if r.AmountTenthsOz == nil {
			return time.Time{}, nil, nil, "", errors.New("amount_tenths_oz is required for bottle feedings")
		}
		if *r.AmountTenthsOz < MinBottleTenthsOz || *r.AmountTenthsOz > MaxBottleTenthsOz {
			return time.Time{}, nil, nil, "", errors.New("amount_tenths_oz must be between 1 and 500 (0.1-50.0 oz)")
		}
		return fedAt, r.AmountTenthsOz, nil, "", nil

	case TypeBreast:
		if r.DurationMinutes == nil {
			return time.Time{}, nil, nil, "", errors.New("duration_minutes is required for breast feedings")
		}
		if *r.DurationMinutes < MinBreastMinutes || *r.DurationMinutes > MaxBreastMinutes {
			return time.Time{}, nil, nil, "", errors.New("duration_minutes must be between 1 and 180")
		}
		switch r.Side {
		case "left", "right", "both":
		default:
			return time.Time{}, nil, nil, "", errors.New("side is required for breast feedings (left, right or both)")
		}
		return fedAt, nil, r.DurationMinutes, r.Side, nil
	}
	return time.Time{}, nil, nil, "", errors.New("feeding_type must be 'bottle' or 'breast'")
}

type Repository struct {
	Pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{Pool: pool}
}

const columns = `id, child_id, feeding_type, fed_at, amount_tenths_oz, duration_minutes, side, created_at, updated_at`

func scan(row pgx.Row) (*Feeding, error) {
	var f Feeding
	err := row.Scan(&f.ID, &f.ChildID, &f.FeedingType, &f.FedAt,
		&f.AmountTenthsOz, &f.DurationMinutes, &f.Side, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Insert writes a feeding. tx may be nil to use the pool directly; the batch
// endpoint passes its transaction.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, childID string, req Request) (*Feeding, error) {
	fedAt, amount, duration, side, err := req.Validate()
	if err != nil {
		return nil, err
	}

	q := `INSERT INTO feedings (child_id, feeding_type, fed_at, amount_tenths_oz, duration_minutes, side)
	      VALUES ($1::uuid, $2, $3, $4, $5, $6)
	      RETURNING ` + columns
	if tx != nil {
		return scan(tx.QueryRow(ctx, q, childID, req.FeedingType, fedAt, amount, duration, side))
	}
	return scan(r.Pool.QueryRow(ctx, q, childID, req.FeedingType, fedAt, amount, duration, side))
}

func (r *Repository) Get(ctx context.Context, childID, id string) (*Feeding, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return scan(r.Pool.QueryRow(ctx,
		`SELECT `+columns+` FROM feedings WHERE id = $1::uuid AND child_id = $2::uuid`,
		id, childID))
}

func (r *Repository) Update(ctx context.Context, childID, id string, req Request) (*Feeding, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	fedAt, amount, duration, side, err := req.Validate()
	if err != nil {
		return nil, err
	}
	return scan(r.Pool.QueryRow(ctx,
		`UPDATE feedings
		 SET feeding_type = $3, fed_at = $4, amount_tenths_oz = $5,
		     duration_minutes = $6, side = $7, updated_at = NOW()
		 WHERE id = $1::uuid AND child_id = $2::uuid
		 RETURNING `+columns,
		id, childID, req.FeedingType, fedAt, amount, duration, side))
}

func (r *Repository) Delete(ctx context.Context, childID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM feedings WHERE id = $1::uuid AND child_id = $2::uuid`, id, childID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, childID string, from, to *time.Time, limit int) ([]Feeding, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.Pool.Query(ctx,
		`SELECT `+columns+` FROM feedings
		 WHERE child_id = $1::uuid
		   AND ($2::timestamptz IS NULL OR fed_at >= $2)
		   AND ($3::timestamptz IS NULL OR fed_at < $3)
		 ORDER BY fed_at DESC
		 LIMIT $4`,
		childID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Feeding{}
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

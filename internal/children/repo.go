package children

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("child not found")
	ErrAlreadyShared = errors.New("share already exists")
)

type Repository struct {
	Pool   *pgxpool.Pool
	Caches *Caches
}

func NewRepository(pool *pgxpool.Pool, caches *Caches) *Repository {
	return &Repository{Pool: pool, Caches: caches}
}

const childColumns = `id, parent_id, name, date_of_birth::text, gender,
	custom_bottle_low_tenths, custom_bottle_mid_tenths, custom_bottle_high_tenths,
	feeding_reminder_interval_hours, created_at, updated_at`

func scanChild(row pgx.Row) (*Child, error) {
	var ch Child
	err := row.Scan(
		&ch.ID, &ch.ParentID, &ch.Name, &ch.DateOfBirth, &ch.Gender,
		&ch.CustomBottleLowTenths, &ch.CustomBottleMidTenths, &ch.CustomBottleHighTenths,
		&ch.ReminderIntervalHours, &ch.CreatedAt, &ch.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (r *Repository) Create(ctx context.Context, parentID string, req ChildRequest) (*Child, error) {
	row := r.Pool.QueryRow(ctx,
		`INSERT INTO children (parent_id, name, date_of_birth, gender,
		     custom_bottle_low_tenths, custom_bottle_mid_tenths, custom_bottle_high_tenths,
		     feeding_reminder_interval_hours)
		 VALUES ($1::uuid, $2, $3::date, $4, $5, $6, $7, $8)
		 RETURNING `+childColumns,
		parentID, req.Name, req.DateOfBirth, req.Gender,
		req.CustomBottleLowTenths, req.CustomBottleMidTenths, req.CustomBottleHighTenths,
		req.ReminderIntervalHours,
	)
	ch, err := scanChild(row)
	if err != nil {
		return nil, err
	}
	r.Caches.InvalidateUser(parentID)
	return ch, nil
}

func (r *Repository) Get(ctx context.Context, childID string) (*Child, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+childColumns+` FROM children WHERE id = $1::uuid`, childID)
	return scanChild(row)
}

func (r *Repository) Update(ctx context.Context, childID string, req ChildRequest) (*Child, error) {
	row := r.Pool.QueryRow(ctx,
		`UPDATE children
		 SET name = $2, date_of_birth = $3::date, gender = $4,
		     custom_bottle_low_tenths = $5, custom_bottle_mid_tenths = $6,
		     custom_bottle_high_tenths = $7, feeding_reminder_interval_hours = $8,
		     updated_at = NOW()
		 WHERE id = $1::uuid
		 RETURNING `+childColumns,
		childID, req.Name, req.DateOfBirth, req.Gender,
		req.CustomBottleLowTenths, req.CustomBottleMidTenths, req.CustomBottleHighTenths,
		req.ReminderIntervalHours,
	)
	ch, err := scanChild(row)
	if err != nil {
		return nil, err
	}
	r.invalidateAllWithAccess(ctx, childID)
	return ch, nil
}

func (r *Repository) Delete(ctx context.Context, childID string) error {
	r.invalidateAllWithAccess(ctx, childID)
	_, err := r.Pool.Exec(ctx, `DELETE FROM children WHERE id = $1::uuid`, childID)
	return err
}

// invalidateAllWithAccess drops the accessible-children cache for the owner
// and every shared user of a child.
func (r *Repository) invalidateAllWithAccess(ctx context.Context, childID string) {
	rows, err := r.Pool.Query(ctx,
		`SELECT parent_id::text FROM children WHERE id = $1::uuid
		 UNION
		 SELECT user_id::text FROM child_shares WHERE child_id = $1::uuid`,
		childID,
	)
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var uid string
		if rows.Scan(&uid) == nil {
			r.Caches.InvalidateUser(uid)
		}
	}
}

// AccessibleIDs returns the ids of children the user owns or has a share
// for. Results are cached per user for an hour.
func (r *Repository) AccessibleIDs(ctx context.Context, userID string) ([]string, error) {
	if ids, ok := r.Caches.AccessibleIDs(userID); ok {
		return ids, nil
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT DISTINCT c.id::text
		 FROM children c
		 LEFT JOIN child_shares s ON s.child_id = c.id
		 WHERE c.parent_id = $1::uuid OR s.user_id = $1::uuid`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.Caches.SetAccessibleIDs(userID, ids)
	return ids, nil
}

// ListForUser returns every accessible child ordered by date of birth,
// newest first, with the user's role annotated.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]Child, error) {
	ids, err := r.AccessibleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Child{}, nil
	}

	rows, err := r.Pool.Query(ctx,
		`SELECT `+childColumns+` FROM children
		 WHERE id = ANY($1::uuid[])
		 ORDER BY date_of_birth DESC`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Child
	for rows.Next() {
		ch, err := scanChild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		role, err := r.UserRole(ctx, &out[i], userID)
		if err != nil {
			return nil, err
		}
		annotateRole(&out[i], role)
	}
	return out, nil
}

// UserRole resolves the user's role on a child: owner, co-parent, caregiver,
// or "" for no access.
func (r *Repository) UserRole(ctx context.Context, ch *Child, userID string) (string, error) {
	if ch.ParentID == userID {
		return RoleOwner, nil
	}
	var dbRole string
	err := r.Pool.QueryRow(ctx,
		`SELECT role FROM child_shares WHERE child_id = $1::uuid AND user_id = $2::uuid`,
		ch.ID, userID,
	).Scan(&dbRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return RoleFromDB(dbRole), nil
}

func annotateRole(ch *Child, role string) {
	ch.UserRole = role
	ch.CanEditChild = CanEdit(role)
	ch.CanManageSharing = CanManageSharing(role)
}

// LastActivities returns last feeding/diaper/nap timestamps for a child,
// served from cache when fresh.
func (r *Repository) LastActivities(ctx context.Context, childID string) (Activities, error) {
	if a, ok := r.Caches.Activity(childID); ok {
		return a, nil
	}

	var a Activities
	err := r.Pool.QueryRow(ctx,
		`SELECT
		    (SELECT MAX(fed_at) FROM feedings WHERE child_id = $1::uuid),
		    (SELECT MAX(changed_at) FROM diaper_changes WHERE child_id = $1::uuid),
		    (SELECT MAX(napped_at) FROM naps WHERE child_id = $1::uuid)`,
		childID,
	).Scan(&a.LastFeeding, &a.LastDiaperChange, &a.LastNap)
	if err != nil {
		return Activities{}, err
	}
	r.Caches.SetActivity(childID, a)
	return a, nil
}

// --- sharing ---

func (r *Repository) ListShares(ctx context.Context, childID string) ([]Share, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT s.id, u.email, s.role, s.created_at
		 FROM child_shares s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.child_id = $1::uuid
		 ORDER BY s.created_at DESC`,
		childID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shares := []Share{}
	for rows.Next() {
		var s Share
		var dbRole string
		if err := rows.Scan(&s.ID, &s.UserEmail, &dbRole, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Role = RoleFromDB(dbRole)
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

// RevokeShare deletes a share and invalidates the revoked user's cache.
func (r *Repository) RevokeShare(ctx context.Context, childID, shareID string) error {
	if _, err := uuid.Parse(shareID); err != nil {
		return ErrNotFound
	}
	var userID string
	err := r.Pool.QueryRow(ctx,
		`DELETE FROM child_shares WHERE id = $1::uuid AND child_id = $2::uuid
		 RETURNING user_id::text`,
		shareID, childID,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	r.Caches.InvalidateUser(userID)
	return nil
}

// newInviteToken mirrors a 32-byte urlsafe token.
func newInviteToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (r *Repository) CreateInvite(ctx context.Context, childID, createdBy, role string) (*Invite, error) {
	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	var inv Invite
	var dbRole string
	err = r.Pool.QueryRow(ctx,
		`INSERT INTO share_invites (child_id, token, role, created_by)
		 VALUES ($1::uuid, $2, $3, $4::uuid)
		 RETURNING id, token, role, is_active, created_at`,
		childID, token, RoleToDB(role), createdBy,
	).Scan(&inv.ID, &inv.Token, &dbRole, &inv.IsActive, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	inv.Role = RoleFromDB(dbRole)
	return &inv, nil
}

func (r *Repository) ListInvites(ctx context.Context, childID string) ([]Invite, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT id, token, role, is_active, created_at
		 FROM share_invites WHERE child_id = $1::uuid
		 ORDER BY created_at DESC`,
		childID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := []Invite{}
	for rows.Next() {
		var inv Invite
		var dbRole string
		if err := rows.Scan(&inv.ID, &inv.Token, &dbRole, &inv.IsActive, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.Role = RoleFromDB(dbRole)
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (r *Repository) ToggleInvite(ctx context.Context, childID, inviteID string) (*Invite, error) {
	if _, err := uuid.Parse(inviteID); err != nil {
		return nil, ErrNotFound
	}
	var inv Invite
	var dbRole string
	err := r.Pool.QueryRow(ctx,
		`UPDATE share_invites SET is_active = NOT is_active
		 WHERE id = $1::uuid AND child_id = $2::uuid
		 RETURNING id, token, role, is_active, created_at`,
		inviteID, childID,
	).Scan(&inv.ID, &inv.Token, &dbRole, &inv.IsActive, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	inv.Role = RoleFromDB(dbRole)
	return &inv, nil
}

func (r *Repository) DeleteInvite(ctx context.Context, childID, inviteID string) error {
	if _, err := uuid.Parse(inviteID); err != nil {
		return ErrNotFound
	}
	tag, err := r.Pool.Exec(ctx,
		`DELETE FROM share_invites WHERE id = $1::uuid AND child_id = $2::uuid`,
		inviteID, childID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveInvite resolves an active invite row by token.
func (r *Repository) ActiveInvite(ctx context.Context, token string) (childID, createdBy, role string, err error) {
	var dbRole string
	err = r.Pool.QueryRow(ctx,
		`SELECT child_id::text, created_by::text, role
		 FROM share_invites WHERE token = $1 AND is_active`,
		token,
	).Scan(&childID, &createdBy, &dbRole)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", "", ErrNotFound
	}
	if err != nil {
		return "", "", "", err
	}
	return childID, createdBy, RoleFromDB(dbRole), nil
}

// AcceptShare creates a share for the invited user. Concurrent accepts race
// on the (child_id, user_id) uniqueness; losers fall back to the existing
// row and report created=false.
func (r *Repository) AcceptShare(ctx context.Context, childID, userID, createdBy, role string) (created bool, err error) {
	_, err = r.Pool.Exec(ctx,
		`INSERT INTO child_shares (child_id, user_id, role, created_by)
		 VALUES ($1::uuid, $2::uuid, $3, $4::uuid)`,
		childID, userID, RoleToDB(role), createdBy,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			var exists bool
			qerr := r.Pool.QueryRow(ctx,
				`SELECT TRUE FROM child_shares WHERE child_id = $1::uuid AND user_id = $2::uuid`,
				childID, userID,
			).Scan(&exists)
			if qerr != nil {
				return false, qerr
			}
			return false, nil
		}
		return false, err
	}
	r.Caches.InvalidateUser(userID)
	return true, nil
}

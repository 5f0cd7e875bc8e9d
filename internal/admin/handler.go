package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	Pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{Pool: pool}
}

type listedUser struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	FullName   *string `json:"full_name"`
	Children   int64   `json:"children"`
	CreatedAt  string  `json:"created_at"`
	LastSeenAt *string `json:"last_seen_at"`
}

func (h *Handler) Users(c *fiber.Ctx) error {
	ctx := c.UserContext()
	rows, err := h.Pool.Query(ctx, `
		SELECT u.id::text, u.email, u.full_name,
		       (SELECT COUNT(*) FROM children ch WHERE ch.parent_id = u.id),
		       u.created_at::text, u.last_seen_at::text
		FROM users u
		ORDER BY u.created_at DESC
		LIMIT 100`)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed users: "+err.Error())
	}
	defer rows.Close()

	out := []listedUser{}
	for rows.Next() {
		var u listedUser
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Children, &u.CreatedAt, &u.LastSeenAt); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed scan users: "+err.Error())
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed users rows: "+err.Error())
	}
	return c.JSON(out)
}

type StatsResponse struct {
	UsersTotal         int64 `json:"users_total"`
	ChildrenTotal      int64 `json:"children_total"`
	FeedingsTotal      int64 `json:"feedings_total"`
	DiaperChangesTotal int64 `json:"diaper_changes_total"`
	NapsTotal          int64 `json:"naps_total"`
	NotificationsTotal int64 `json:"notifications_total"`
	SharesTotal        int64 `json:"shares_total"`
}

func (h *Handler) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var resp StatsResponse
	err := h.Pool.QueryRow(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM users),
		  (SELECT COUNT(*) FROM children),
		  (SELECT COUNT(*) FROM feedings),
		  (SELECT COUNT(*) FROM diaper_changes),
		  (SELECT COUNT(*) FROM naps),
		  (SELECT COUNT(*) FROM notifications),
		  (SELECT COUNT(*) FROM child_shares)`).Scan(
		&resp.UsersTotal, &resp.ChildrenTotal, &resp.FeedingsTotal,
		&resp.DiaperChangesTotal, &resp.NapsTotal, &resp.NotificationsTotal, &resp.SharesTotal)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed stats: "+err.Error())
	}
	return c.JSON(resp)
}

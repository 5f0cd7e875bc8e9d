package notifications

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/auth"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	ctx := auth.UserContext(c)
	rows, err := h.Service.Pool.Query(ctx,
		`SELECT id, actor_id, child_id, event_type, message, is_read, created_at
		 FROM notifications
		 WHERE recipient_id = $1::uuid
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch notifications")
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.ActorID, &n.ChildID, &n.EventType, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch notifications")
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch notifications")
	}

	var total int
	if err := h.Service.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1::uuid`, userID).Scan(&total); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch notifications")
	}

	return c.JSON(fiber.Map{
		"notifications": out,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

func (h *Handler) UnreadCount(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var count int
	err = h.Service.Pool.QueryRow(auth.UserContext(c),
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1::uuid AND is_read = FALSE`,
		userID).Scan(&count)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to count notifications")
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	tag, err := h.Service.Pool.Exec(auth.UserContext(c),
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1::uuid AND is_read = FALSE`,
		userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update notifications")
	}
	return c.JSON(fiber.Map{"updated": tag.RowsAffected()})
}

// MarkRead only flips is_read to true; notifications are otherwise
// immutable.
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(c.Params("notificationID")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "notification not found")
	}
	var n Notification
	err = h.Service.Pool.QueryRow(auth.UserContext(c),
		`UPDATE notifications SET is_read = TRUE
		 WHERE id = $1::uuid AND recipient_id = $2::uuid
		 RETURNING id, actor_id, child_id, event_type, message, is_read, created_at`,
		c.Params("notificationID"), userID).Scan(
		&n.ID, &n.ActorID, &n.ChildID, &n.EventType, &n.Message, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fiber.NewError(fiber.StatusNotFound, "notification not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update notification")
	}
	return c.JSON(n)
}

// ListPreferences returns one row per accessible child, creating missing
// rows with everything on.
func (h *Handler) ListPreferences(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	ctx := auth.UserContext(c)

	_, err = h.Service.Pool.Exec(ctx,
		`INSERT INTO notification_preferences (user_id, child_id)
		 SELECT $1::uuid, c.id FROM children c
		 WHERE c.parent_id = $1::uuid
		    OR EXISTS (SELECT 1 FROM child_shares s WHERE s.child_id = c.id AND s.user_id = $1::uuid)
		 ON CONFLICT (user_id, child_id) DO NOTHING`,
		userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch preferences")
	}

	rows, err := h.Service.Pool.Query(ctx,
		`SELECT p.id, p.child_id, c.name, p.notify_feedings, p.notify_diapers, p.notify_naps
		 FROM notification_preferences p
		 JOIN children c ON c.id = p.child_id
		 WHERE p.user_id = $1::uuid
		   AND (c.parent_id = $1::uuid
		        OR EXISTS (SELECT 1 FROM child_shares s WHERE s.child_id = c.id AND s.user_id = $1::uuid))
		 ORDER BY c.name`,
		userID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch preferences")
	}
	defer rows.Close()

	out := []Preference{}
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.ID, &p.ChildID, &p.ChildName, &p.NotifyFeedings, &p.NotifyDiapers, &p.NotifyNaps); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch preferences")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch preferences")
	}
	return c.JSON(out)
}

func (h *Handler) UpdatePreference(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var req PreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if _, err := uuid.Parse(c.Params("childID")); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "child not found")
	}

	ctx := auth.UserContext(c)
	var accessible bool
	err = h.Service.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM children c
		   WHERE c.id = $2::uuid
		     AND (c.parent_id = $1::uuid
		          OR EXISTS (SELECT 1 FROM child_shares s WHERE s.child_id = c.id AND s.user_id = $1::uuid)))`,
		userID, c.Params("childID")).Scan(&accessible)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update preference")
	}
	if !accessible {
		return fiber.NewError(fiber.StatusNotFound, "child not found")
	}

	var p Preference
	err = h.Service.Pool.QueryRow(ctx,
		`INSERT INTO notification_preferences (user_id, child_id, notify_feedings, notify_diapers, notify_naps)
		 VALUES ($1::uuid, $2::uuid, COALESCE($3, TRUE), COALESCE($4, TRUE), COALESCE($5, TRUE))
		 ON CONFLICT (user_id, child_id) DO UPDATE SET
		   notify_feedings = COALESCE($3, notification_preferences.notify_feedings),
		   notify_diapers  = COALESCE($4, notification_preferences.notify_diapers),
		   notify_naps     = COALESCE($5, notification_preferences.notify_naps)
		 RETURNING id, child_id, notify_feedings, notify_diapers, notify_naps`,
		userID, c.Params("childID"), req.NotifyFeedings, req.NotifyDiapers, req.NotifyNaps).Scan(
		&p.ID, &p.ChildID, &p.NotifyFeedings, &p.NotifyDiapers, &p.NotifyNaps)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "failed to update preference")
	}
	return c.JSON(p)
}

func (h *Handler) GetQuietHours(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var q QuietHours
	err = h.Service.Pool.QueryRow(auth.UserContext(c),
		`SELECT enabled, start_time::text, end_time::text FROM quiet_hours WHERE user_id = $1::uuid`,
		userID).Scan(&q.Enabled, &q.StartTime, &q.EndTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(QuietHours{Enabled: false, StartTime: "22:00:00", EndTime: "07:00:00"})
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch quiet hours")
	}
	return c.JSON(q)
}

func (h *Handler) UpdateQuietHours(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	var req QuietHoursRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	for _, v := range []*string{req.StartTime, req.EndTime} {
		if v == nil {
			continue
		}
		if _, err := parseClock(*v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "times must be HH:MM")
		}
	}

	var q QuietHours
	err = h.Service.Pool.QueryRow(auth.UserContext(c),
		`INSERT INTO quiet_hours (user_id, enabled, start_time, end_time)
		 VALUES ($1::uuid, COALESCE($2, FALSE), COALESCE($3::time, '22:00'::time), COALESCE($4::time, '07:00'::time))
		 ON CONFLICT (user_id) DO UPDATE SET
		   enabled    = COALESCE($2, quiet_hours.enabled),
		   start_time = COALESCE($3::time, quiet_hours.start_time),
		   end_time   = COALESCE($4::time, quiet_hours.end_time)
		 RETURNING enabled, start_time::text, end_time::text`,
		userID, req.Enabled, req.StartTime, req.EndTime).Scan(&q.Enabled, &q.StartTime, &q.EndTime)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update quiet hours")
	}
	return c.JSON(q)
}

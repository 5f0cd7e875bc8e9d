// Package tracking carries the side effects shared by every tracking-record
// write (feedings, diaper changes, naps): auto-ending open naps, cache
// invalidation and notification fan-out.
package tracking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/children"
)

// Event types used in notifications.
const (
	EventFeeding = "feeding"
	EventDiaper  = "diaper"
	EventNap     = "nap"
)

// Notifier queues activity notifications for a child's other followers.
type Notifier interface {
	ActivityCreated(childID, actorID, eventType string)
}

// AnalyticsInvalidator drops cached analytics responses for a child.
type AnalyticsInvalidator interface {
	InvalidateChild(childID string)
}

// Events dispatches post-write side effects. All methods are safe to call
// with a nil Notifier or AnalyticsInvalidator.
type Events struct {
	Pool      *pgxpool.Pool
	Caches    *children.Caches
	Analytics AnalyticsInvalidator
	Notifier  Notifier
}

// RecordCreated runs after a tracking record is inserted: open naps for the
// child that started before the activity are ended at the activity's
// timestamp, caches are dropped, and followers are notified. excludeNapID is
// the id of the nap that triggered the event, "" otherwise.
func (e *Events) RecordCreated(ctx context.Context, childID, actorID, eventType string, occurredAt time.Time, excludeNapID string) {
	e.endOpenNaps(ctx, childID, occurredAt, excludeNapID)
	e.RecordChanged(childID)
	if e.Notifier != nil {
		e.Notifier.ActivityCreated(childID, actorID, eventType)
	}
}

// RecordChanged runs after any tracking-record mutation (create, update,
// delete) and only touches caches.
func (e *Events) RecordChanged(childID string) {
	if e.Caches != nil {
		e.Caches.InvalidateActivity(childID)
	}
	if e.Analytics != nil {
		e.Analytics.InvalidateChild(childID)
	}
}

func (e *Events) endOpenNaps(ctx context.Context, childID string, ts time.Time, excludeNapID string) {
	if excludeNapID != "" {
		_, _ = e.Pool.Exec(ctx,
			`UPDATE naps SET ended_at = $2, updated_at = NOW()
			 WHERE child_id = $1::uuid AND ended_at IS NULL AND napped_at < $2 AND id <> $3::uuid`,
			childID, ts, excludeNapID,
		)
		return
	}
	_, _ = e.Pool.Exec(ctx,
		`UPDATE naps SET ended_at = $2, updated_at = NOW()
		 WHERE child_id = $1::uuid AND ended_at IS NULL AND napped_at < $2`,
		childID, ts,
	)
}

// ParseRangeQuery reads optional from/to RFC3339 query values. Invalid
// values are ignored, matching the permissive filtering of the list
// endpoints.
func ParseRangeQuery(from, to string) (*time.Time, *time.Time) {
	var fromTS, toTS *time.Time
	if from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			fromTS = &t
		}
	}
	if to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			toTS = &t
		}
	}
	return fromTS, toTS
}

// Package notifications delivers in-app notifications: activity fan-out to a
// child's other followers, scheduled feeding reminders and retention cleanup.
package notifications

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const workerCount = 4

type activity struct {
	childID   string
	actorID   string
	eventType string
}

// Service fans out activity notifications off the request path. It satisfies
// tracking.Notifier.
type Service struct {
	Pool  *pgxpool.Pool
	queue chan activity
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{Pool: pool, queue: make(chan activity, 256)}
}

// Start launches the fan-out workers. They exit when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < workerCount; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case a := <-s.queue:
					s.fanOut(ctx, a)
				}
			}
		}()
	}
}

// ActivityCreated queues a fan-out. Never blocks the caller; a full queue
// drops the notification.
func (s *Service) ActivityCreated(childID, actorID, eventType string) {
	select {
	case s.queue <- activity{childID: childID, actorID: actorID, eventType: eventType}:
	default:
		log.Printf("notification queue full, dropping %s event for child %s", eventType, childID)
	}
}

func eventPhrase(eventType string) string {
	switch eventType {
	case "diaper":
		return "a diaper change"
	case "nap":
		return "a nap"
	default:
		return "a feeding"
	}
}

func prefColumn(eventType string) string {
	switch eventType {
	case "diaper":
		return "notify_diapers"
	case "nap":
		return "notify_naps"
	default:
		return "notify_feedings"
	}
}

func (s *Service) fanOut(ctx context.Context, a activity) {
	var childName string
	var parentID string
	err := s.Pool.QueryRow(ctx,
		`SELECT name, parent_id FROM children WHERE id = $1::uuid`, a.childID).
		Scan(&childName, &parentID)
	if err != nil {
		log.Printf("notification fan-out: child %s: %v", a.childID, err)
		return
	}

	var actorName string
	err = s.Pool.QueryRow(ctx,
		`SELECT COALESCE(full_name, email) FROM users WHERE id = $1::uuid`, a.actorID).
		Scan(&actorName)
	if err != nil {
		log.Printf("notification fan-out: actor %s: %v", a.actorID, err)
		return
	}

	recipients, err := s.recipients(ctx, a.childID, parentID, a.actorID)
	if err != nil {
		log.Printf("notification fan-out: recipients for child %s: %v", a.childID, err)
		return
	}

	message := actorName + " logged " + eventPhrase(a.eventType) + " for " + childName
	now := time.Now()
	for _, uid := range recipients {
		allowed, err := s.eventAllowed(ctx, uid, a.childID, a.eventType)
		if err != nil {
			log.Printf("notification fan-out: preferences for %s: %v", uid, err)
			continue
		}
		if !allowed {
			continue
		}
		quiet, err := s.inQuietHours(ctx, uid, now)
		if err != nil {
			log.Printf("notification fan-out: quiet hours for %s: %v", uid, err)
			continue
		}
		if quiet {
			continue
		}
		s.insert(ctx, uid, &a.actorID, a.childID, a.eventType, message)
	}
}

// recipients is the child's owner plus every shared user, minus the actor.
func (s *Service) recipients(ctx context.Context, childID, parentID, actorID string) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT user_id::text FROM child_shares WHERE child_id = $1::uuid`, childID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	if parentID != actorID {
		out = append(out, parentID)
	}
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		if uid != actorID {
			out = append(out, uid)
		}
	}
	return out, rows.Err()
}

// eventAllowed checks the per-child preference row. No row means everything
// is on.
func (s *Service) eventAllowed(ctx context.Context, userID, childID, eventType string) (bool, error) {
	var allowed bool
	err := s.Pool.QueryRow(ctx,
		`SELECT COALESCE(
		   (SELECT `+prefColumn(eventType)+` FROM notification_preferences
		    WHERE user_id = $1::uuid AND child_id = $2::uuid),
		   TRUE)`,
		userID, childID).Scan(&allowed)
	return allowed, err
}

func (s *Service) inQuietHours(ctx context.Context, userID string, now time.Time) (bool, error) {
	var q QuietHours
	var tz string
	err := s.Pool.QueryRow(ctx,
		`SELECT COALESCE(q.enabled, FALSE),
		        COALESCE(q.start_time::text, '22:00:00'),
		        COALESCE(q.end_time::text, '07:00:00'),
		        u.timezone
		 FROM users u
		 LEFT JOIN quiet_hours q ON q.user_id = u.id
		 WHERE u.id = $1::uuid`,
		userID).Scan(&q.Enabled, &q.StartTime, &q.EndTime, &tz)
	if err != nil {
		return false, err
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return q.IsQuietAt(now, loc), nil
}

// maxMessageLen matches the char_length check on notifications.message.
const maxMessageLen = 255

// truncateMessage caps a message at maxMessageLen characters. Names feeding
// into messages are user-controlled and can push past the column limit.
func truncateMessage(message string) string {
	runes := []rune(message)
	if len(runes) <= maxMessageLen {
		return message
	}
	return string(runes[:maxMessageLen-3]) + "..."
}

func (s *Service) insert(ctx context.Context, recipientID string, actorID *string, childID, eventType, message string) {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO notifications (recipient_id, actor_id, child_id, event_type, message)
		 VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $5)`,
		recipientID, actorID, childID, eventType, truncateMessage(message))
	if err != nil {
		log.Printf("notification insert for %s: %v", recipientID, err)
	}
}

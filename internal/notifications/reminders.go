package notifications

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"
)

// remindersDue lists the reminders a child is owed: 1 once the interval has
// passed since the last feeding, 2 once one and a half intervals have. Both
// come back when the first sweep lands past the repeat threshold, so the
// initial reminder is not lost to a gap in sweeps.
func remindersDue(lastFed time.Time, intervalHours int, now time.Time) []int {
	elapsed := now.Sub(lastFed)
	interval := time.Duration(intervalHours) * time.Hour
	var due []int
	if elapsed >= interval {
		due = append(due, 1)
	}
	if elapsed >= interval+interval/2 {
		due = append(due, 2)
	}
	return due
}

// CheckFeedingReminders scans every child with a reminder interval and at
// least one feeding, and notifies followers who have feeding notifications
// on. Reminders ignore quiet hours. The reminder log's unique constraint
// keeps each window's reminders single-shot across runs.
func (s *Service) CheckFeedingReminders(ctx context.Context) {
	rows, err := s.Pool.Query(ctx,
		`SELECT c.id::text, c.name, c.parent_id::text, c.feeding_reminder_interval_hours, MAX(f.fed_at)
		 FROM children c
		 JOIN feedings f ON f.child_id = c.id
		 WHERE c.feeding_reminder_interval_hours IS NOT NULL
		 GROUP BY c.id`)
	if err != nil {
		log.Printf("feeding reminders: %v", err)
		return
	}
	defer rows.Close()

	type due struct {
		childID   string
		childName string
		parentID  string
		interval  int
		lastFed   time.Time
		numbers   []int
	}
	var dues []due
	now := time.Now()
	for rows.Next() {
		var d due
		if err := rows.Scan(&d.childID, &d.childName, &d.parentID, &d.interval, &d.lastFed); err != nil {
			log.Printf("feeding reminders: scan: %v", err)
			return
		}
		if d.numbers = remindersDue(d.lastFed, d.interval, now); len(d.numbers) > 0 {
			dues = append(dues, d)
		}
	}
	if err := rows.Err(); err != nil {
		log.Printf("feeding reminders: %v", err)
		return
	}

	for _, d := range dues {
		for _, number := range d.numbers {
			_, err := s.Pool.Exec(ctx,
				`INSERT INTO feeding_reminder_logs (child_id, window_start, reminder_number)
				 VALUES ($1::uuid, $2, $3)`,
				d.childID, d.lastFed, number)
			if err != nil {
				// Already sent for this window.
				if strings.Contains(err.Error(), "duplicate key") {
					continue
				}
				log.Printf("feeding reminders: log for child %s: %v", d.childID, err)
				continue
			}

			hours := now.Sub(d.lastFed).Hours()
			message := d.childName + " hasn't been fed in about " +
				strconv.FormatFloat(hours, 'f', 1, 64) + " hours"

			recipients, err := s.recipients(ctx, d.childID, d.parentID, "")
			if err != nil {
				log.Printf("feeding reminders: recipients for child %s: %v", d.childID, err)
				continue
			}
			for _, uid := range recipients {
				allowed, err := s.eventAllowed(ctx, uid, d.childID, "feeding")
				if err != nil || !allowed {
					continue
				}
				s.insert(ctx, uid, nil, d.childID, EventFeedingReminder, message)
			}
		}
	}
}

// Cleanup applies the retention policy: notifications are kept 30 days,
// reminder logs 7.
func (s *Service) Cleanup(ctx context.Context) {
	if _, err := s.Pool.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < NOW() - INTERVAL '30 days'`); err != nil {
		log.Printf("notification cleanup: %v", err)
	}
	if _, err := s.Pool.Exec(ctx,
		`DELETE FROM feeding_reminder_logs WHERE sent_at < NOW() - INTERVAL '7 days'`); err != nil {
		log.Printf("reminder log cleanup: %v", err)
	}
}

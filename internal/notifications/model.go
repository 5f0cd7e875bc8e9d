package notifications

import "time"

const (
	EventFeedingReminder = "feeding_reminder"
)

type Notification struct {
	ID        string    `json:"id"`
	ActorID   *string   `json:"actor_id"`
	ChildID   string    `json:"child_id"`
	EventType string    `json:"event_type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type Preference struct {
	ID             string `json:"id"`
	ChildID        string `json:"child_id"`
	ChildName      string `json:"child_name"`
	NotifyFeedings bool   `json:"notify_feedings"`
	NotifyDiapers  bool   `json:"notify_diapers"`
	NotifyNaps     bool   `json:"notify_naps"`
}

type PreferenceRequest struct {
	NotifyFeedings *bool `json:"notify_feedings"`
	NotifyDiapers  *bool `json:"notify_diapers"`
	NotifyNaps     *bool `json:"notify_naps"`
}

// QuietHours is the per-user suppression window. Times are local to the
// user's timezone; an end before the start means the window crosses
// midnight.
type QuietHours struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type QuietHoursRequest struct {
	Enabled   *bool   `json:"enabled"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

// IsQuietAt reports whether t falls inside the window, evaluated in loc.
func (q *QuietHours) IsQuietAt(t time.Time, loc *time.Location) bool {
	if !q.Enabled {
		return false
	}
	start, err1 := parseClock(q.StartTime)
	end, err2 := parseClock(q.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}

	local := t.In(loc)
	now := local.Hour()*60 + local.Minute()

	if start == end {
		return false
	}
	if start < end {
		return now >= start && now < end
	}
	// Overnight window, e.g. 22:00-07:00.
	return now >= start || now < end
}

// parseClock converts "HH:MM" or "HH:MM:SS" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return 0, err
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}

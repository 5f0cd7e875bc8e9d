package notifications

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestQuietHoursSameDayWindow(t *testing.T) {
	q := QuietHours{Enabled: true, StartTime: "13:00:00", EndTime: "15:00:00"}

	assert.False(t, q.IsQuietAt(at(12, 59), time.UTC))
	assert.True(t, q.IsQuietAt(at(13, 0), time.UTC))
	assert.True(t, q.IsQuietAt(at(14, 30), time.UTC))
	assert.False(t, q.IsQuietAt(at(15, 0), time.UTC))
}

func TestQuietHoursOvernightWindow(t *testing.T) {
	q := QuietHours{Enabled: true, StartTime: "22:00:00", EndTime: "07:00:00"}

	assert.True(t, q.IsQuietAt(at(23, 30), time.UTC))
	assert.True(t, q.IsQuietAt(at(2, 0), time.UTC))
	assert.True(t, q.IsQuietAt(at(6, 59), time.UTC))
	assert.False(t, q.IsQuietAt(at(7, 0), time.UTC))
	assert.False(t, q.IsQuietAt(at(12, 0), time.UTC))
	assert.True(t, q.IsQuietAt(at(22, 0), time.UTC))
}

func TestQuietHoursUsesLocalTime(t *testing.T) {
	q := QuietHours{Enabled: true, StartTime: "22:00:00", EndTime: "07:00:00"}
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:00 UTC on 2026-03-10 is 23:00 the previous evening in New York.
	assert.True(t, q.IsQuietAt(at(3, 0), ny))
	// 17:00 UTC is early afternoon there.
	assert.False(t, q.IsQuietAt(at(17, 0), ny))
}

func TestQuietHoursDisabledOrDegenerate(t *testing.T) {
	off := QuietHours{Enabled: false, StartTime: "22:00:00", EndTime: "07:00:00"}
	assert.False(t, off.IsQuietAt(at(23, 0), time.UTC))

	empty := QuietHours{Enabled: true, StartTime: "09:00:00", EndTime: "09:00:00"}
	assert.False(t, empty.IsQuietAt(at(9, 0), time.UTC))

	broken := QuietHours{Enabled: true, StartTime: "bedtime", EndTime: "07:00:00"}
	assert.False(t, broken.IsQuietAt(at(23, 0), time.UTC))
}

func TestRemindersDue(t *testing.T) {
	lastFed := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		interval int
		now      time.Time
		want     []int
	}{
		{"not yet", 3, lastFed.Add(2*time.Hour + 59*time.Minute), nil},
		{"at interval", 3, lastFed.Add(3 * time.Hour), []int{1}},
		{"between thresholds", 3, lastFed.Add(4 * time.Hour), []int{1}},
		// Past the repeat threshold both reminders are owed; the log's
		// unique constraint drops whichever was already sent.
		{"at 1.5x", 3, lastFed.Add(4*time.Hour + 30*time.Minute), []int{1, 2}},
		{"long overdue", 2, lastFed.Add(9 * time.Hour), []int{1, 2}},
		{"six hour interval", 6, lastFed.Add(8 * time.Hour), []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, remindersDue(lastFed, tt.interval, tt.now))
		})
	}
}

func TestEventPhraseAndPrefColumn(t *testing.T) {
	assert.Equal(t, "a feeding", eventPhrase("feeding"))
	assert.Equal(t, "a diaper change", eventPhrase("diaper"))
	assert.Equal(t, "a nap", eventPhrase("nap"))

	assert.Equal(t, "notify_feedings", prefColumn("feeding"))
	assert.Equal(t, "notify_diapers", prefColumn("diaper"))
	assert.Equal(t, "notify_naps", prefColumn("nap"))
}

func TestTruncateMessage(t *testing.T) {
	short := "Alice logged a feeding for Bob"
	assert.Equal(t, short, truncateMessage(short))

	long := strings.Repeat("x", 300) + " logged a feeding for " + strings.Repeat("y", 120)
	got := truncateMessage(long)
	require.Len(t, []rune(got), 255)
	assert.True(t, strings.HasSuffix(got, "..."))

	// Multi-byte names still come out under the column's character limit.
	wide := strings.Repeat("子", 400)
	assert.Len(t, []rune(truncateMessage(wide)), 255)
}

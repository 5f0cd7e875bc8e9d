package naps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	t.Run("open nap", func(t *testing.T) {
		nappedAt, endedAt, err := (&Request{NappedAt: "2026-03-01T13:00:00Z"}).Validate()
		require.NoError(t, err)
		assert.Equal(t, 13, nappedAt.Hour())
		assert.Nil(t, endedAt)
	})

	t.Run("completed nap", func(t *testing.T) {
		end := "2026-03-01T14:30:00Z"
		_, endedAt, err := (&Request{NappedAt: "2026-03-01T13:00:00Z", EndedAt: &end}).Validate()
		require.NoError(t, err)
		require.NotNil(t, endedAt)
		assert.Equal(t, 30, endedAt.Minute())
	})

	t.Run("end before start", func(t *testing.T) {
		end := "2026-03-01T12:00:00Z"
		_, _, err := (&Request{NappedAt: "2026-03-01T13:00:00Z", EndedAt: &end}).Validate()
		assert.ErrorContains(t, err, "after napped_at")
	})

	t.Run("end equal to start", func(t *testing.T) {
		end := "2026-03-01T13:00:00Z"
		_, _, err := (&Request{NappedAt: "2026-03-01T13:00:00Z", EndedAt: &end}).Validate()
		assert.ErrorContains(t, err, "after napped_at")
	})

	t.Run("bad timestamps", func(t *testing.T) {
		_, _, err := (&Request{NappedAt: "noon"}).Validate()
		assert.ErrorContains(t, err, "napped_at")

		end := "later"
		_, _, err = (&Request{NappedAt: "2026-03-01T13:00:00Z", EndedAt: &end}).Validate()
		assert.ErrorContains(t, err, "ended_at")
	})
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	end := start.Add(95 * time.Minute)

	open := Nap{NappedAt: start}
	assert.Nil(t, open.DurationMinutes())

	done := Nap{NappedAt: start, EndedAt: &end}
	require.NotNil(t, done.DurationMinutes())
	assert.Equal(t, 95, *done.DurationMinutes())
}

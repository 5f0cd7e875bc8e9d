package feedings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestValidateBottle(t *testing.T) {
	req := Request{
		FeedingType:    TypeBottle,
		FedAt:          "2026-02-17T10:00:00Z",
		AmountTenthsOz: intp(40),
		// Breast fields supplied alongside a valid bottle payload get cleared.
		DurationMinutes: intp(15),
		Side:            "left",
	}

	fedAt, amount, duration, side, err := req.Validate()
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 2, 17, 10, 0, 0, 0, time.UTC), fedAt)
	require.Equal(t, 40, *amount)
	require.Nil(t, duration)
	require.Equal(t, "", side)
}

func TestValidateBottleErrors(t *testing.T) {
	base := Request{FeedingType: TypeBottle, FedAt: "2026-02-17T10:00:00Z"}

	t.Run("missing amount", func(t *testing.T) {
		req := base
		_, _, _, _, err := req.Validate()
		require.ErrorContains(t, err, "amount_tenths_oz is required")
	})

	t.Run("amount out of range", func(t *testing.T) {
		for _, a := range []int{0, 501, -5} {
			req := base
			req.AmountTenthsOz = intp(a)
			_, _, _, _, err := req.Validate()
			require.Error(t, err, "amount=%d", a)
		}
	})
}

func TestValidateBreast(t *testing.T) {
	req := Request{
		FeedingType:     TypeBreast,
		FedAt:           "2026-02-17T03:30:00Z",
		DurationMinutes: intp(20),
		Side:            "both",
		AmountTenthsOz:  intp(40), // cleared
	}

	_, amount, duration, side, err := req.Validate()
	require.NoError(t, err)
	require.Nil(t, amount)
	require.Equal(t, 20, *duration)
	require.Equal(t, "both", side)
}

func TestValidateBreastErrors(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{
			"missing duration",
			Request{FeedingType: TypeBreast, FedAt: "2026-02-17T03:30:00Z", Side: "left"},
			"duration_minutes is required",
		},
		{
			"duration too long",
			Request{FeedingType: TypeBreast, FedAt: "2026-02-17T03:30:00Z", DurationMinutes: intp(181), Side: "left"},
			"between 1 and 180",
		},
		{
			"missing side",
			Request{FeedingType: TypeBreast, FedAt: "2026-02-17T03:30:00Z", DurationMinutes: intp(10)},
			"side is required",
		},
		{
			"bad side",
			Request{FeedingType: TypeBreast, FedAt: "2026-02-17T03:30:00Z", DurationMinutes: intp(10), Side: "middle"},
			"side is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, _, err := tc.req.Validate()
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestValidateRejectsBadTypeAndTimestamp(t *testing.T) {
	_, _, _, _, err := (&Request{FeedingType: "cup", FedAt: "2026-02-17T10:00:00Z"}).Validate()
	require.ErrorContains(t, err, "feeding_type")

	_, _, _, _, err = (&Request{FeedingType: TypeBottle, FedAt: "17/02/2026", AmountTenthsOz: intp(40)}).Validate()
	require.ErrorContains(t, err, "RFC3339")
}

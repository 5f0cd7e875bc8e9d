package batch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawEvents(t *testing.T, items ...string) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestValidateEvents(t *testing.T) {
	types, errs := validateEvents(rawEvents(t,
		`{"type":"feeding","feeding_type":"bottle","amount_tenths_oz":40,"fed_at":"2026-03-01T08:00:00Z"}`,
		`{"type":"diaper","change_type":"wet","changed_at":"2026-03-01T09:00:00Z"}`,
		`{"type":"nap","napped_at":"2026-03-01T10:00:00Z"}`,
	))
	require.Empty(t, errs)
	assert.Equal(t, []string{"feeding", "diaper", "nap"}, types)
}

func TestValidateEventsReportsEveryBadIndex(t *testing.T) {
	_, errs := validateEvents(rawEvents(t,
		`{"type":"feeding","feeding_type":"bottle","fed_at":"2026-03-01T08:00:00Z"}`,
		`{"type":"diaper","change_type":"wet","changed_at":"2026-03-01T09:00:00Z"}`,
		`{"type":"bath","happened_at":"2026-03-01T10:00:00Z"}`,
		`{"type":"nap","napped_at":"breakfast"}`,
	))
	require.Len(t, errs, 3)
	assert.Equal(t, 0, errs[0].Index)
	assert.Equal(t, "feeding", errs[0].Type)
	assert.Equal(t, 2, errs[1].Index)
	assert.Contains(t, errs[1].Error, "type must be")
	assert.Equal(t, 3, errs[2].Index)
	assert.Contains(t, errs[2].Error, "napped_at")
}

package diapers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidate(t *testing.T) {
	for _, typ := range []string{TypeWet, TypeDirty, TypeBoth} {
		req := Request{ChangeType: typ, ChangedAt: "2026-03-01T08:30:00Z"}
		changedAt, err := req.Validate()
		require.NoError(t, err, typ)
		assert.Equal(t, 8, changedAt.Hour())
	}
}

func TestRequestValidateErrors(t *testing.T) {
	_, err := (&Request{ChangeType: "soiled", ChangedAt: "2026-03-01T08:30:00Z"}).Validate()
	assert.ErrorContains(t, err, "change_type")

	_, err = (&Request{ChangeType: TypeWet, ChangedAt: "yesterday"}).Validate()
	assert.ErrorContains(t, err, "changed_at")
}

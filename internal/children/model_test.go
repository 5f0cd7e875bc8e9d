package children

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleMapping(t *testing.T) {
	require.Equal(t, "CO", RoleToDB(RoleCoParent))
	require.Equal(t, "CG", RoleToDB(RoleCaregiver))
	require.Equal(t, "", RoleToDB(RoleOwner))
	require.Equal(t, "", RoleToDB("bogus"))

	require.Equal(t, RoleCoParent, RoleFromDB("CO"))
	require.Equal(t, RoleCaregiver, RoleFromDB("CG"))
	require.Equal(t, "", RoleFromDB("XX"))
}

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role          string
		edit, sharing bool
	}{
		{RoleOwner, true, true},
		{RoleCoParent, true, false},
		{RoleCaregiver, false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.edit, CanEdit(tc.role), "CanEdit(%q)", tc.role)
		require.Equal(t, tc.sharing, CanManageSharing(tc.role), "CanManageSharing(%q)", tc.role)
	}
}

func TestCachesInvalidate(t *testing.T) {
	cc := NewCaches()

	cc.SetAccessibleIDs("u1", []string{"c1", "c2"})
	ids, ok := cc.AccessibleIDs("u1")
	require.True(t, ok)
	require.Equal(t, []string{"c1", "c2"}, ids)

	cc.InvalidateUser("u1")
	_, ok = cc.AccessibleIDs("u1")
	require.False(t, ok)

	cc.SetActivity("c1", Activities{})
	_, ok = cc.Activity("c1")
	require.True(t, ok)

	cc.InvalidateActivity("c1")
	_, ok = cc.Activity("c1")
	require.False(t, ok)
}

func TestNewInviteToken(t *testing.T) {
	a, err := newInviteToken()
	require.NoError(t, err)
	b, err := newInviteToken()
	require.NoError(t, err)

	require.Len(t, a, 43) // 32 bytes, urlsafe base64 without padding
	require.NotEqual(t, a, b)
}

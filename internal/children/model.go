package children

import "time"

// Role strings exposed by the API. Stored compact in the database ('CO'/'CG').
const (
	RoleOwner     = "owner"
	RoleCoParent  = "co-parent"
	RoleCaregiver = "caregiver"
)

const (
	dbRoleCoParent  = "CO"
	dbRoleCaregiver = "CG"
)

// RoleToDB maps an API role string to its storage form. Returns "" for
// unknown roles (the owner role is never stored in child_shares).
func RoleToDB(role string) string {
	switch role {
	case RoleCoParent:
		return dbRoleCoParent
	case RoleCaregiver:
		return dbRoleCaregiver
	}
	return ""
}

// RoleFromDB maps a storage role back to the API string.
func RoleFromDB(dbRole string) string {
	switch dbRole {
	case dbRoleCoParent:
		return RoleCoParent
	case dbRoleCaregiver:
		return RoleCaregiver
	}
	return ""
}

// CanEdit reports whether a role may modify the child profile and its
// tracking records. Caregivers may only view and add.
func CanEdit(role string) bool {
	return role == RoleOwner || role == RoleCoParent
}

// CanManageSharing reports whether a role may manage shares and invites.
func CanManageSharing(role string) bool {
	return role == RoleOwner
}

type Child struct {
	ID                     string     `json:"id"`
	ParentID               string     `json:"-"`
	Name                   string     `json:"name"`
	DateOfBirth            string     `json:"date_of_birth"`
	Gender                 string     `json:"gender,omitempty"`
	CustomBottleLowTenths  *int       `json:"custom_bottle_low_tenths,omitempty"`
	CustomBottleMidTenths  *int       `json:"custom_bottle_mid_tenths,omitempty"`
	CustomBottleHighTenths *int       `json:"custom_bottle_high_tenths,omitempty"`
	ReminderIntervalHours  *int       `json:"feeding_reminder_interval_hours,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`

	// Computed per request for the authenticated user.
	UserRole         string `json:"user_role,omitempty"`
	CanEditChild     bool   `json:"can_edit"`
	CanManageSharing bool   `json:"can_manage_sharing"`

	// Cached last-activity annotations, nil when never logged.
	LastFeeding      *time.Time `json:"last_feeding,omitempty"`
	LastDiaperChange *time.Time `json:"last_diaper_change,omitempty"`
	LastNap          *time.Time `json:"last_nap,omitempty"`
}

type Share struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Invite struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	InviteURL string    `json:"invite_url,omitempty"`
}

type ChildRequest struct {
	Name                   string `json:"name" validate:"required,max=100"`
	DateOfBirth            string `json:"date_of_birth" validate:"required"`
	Gender                 string `json:"gender" validate:"omitempty,oneof=M F O"`
	CustomBottleLowTenths  *int   `json:"custom_bottle_low_tenths" validate:"omitempty,min=1,max=500"`
	CustomBottleMidTenths  *int   `json:"custom_bottle_mid_tenths" validate:"omitempty,min=1,max=500"`
	CustomBottleHighTenths *int   `json:"custom_bottle_high_tenths" validate:"omitempty,min=1,max=500"`
	ReminderIntervalHours  *int   `json:"feeding_reminder_interval_hours" validate:"omitempty,oneof=2 3 4 6"`
}

type InviteRequest struct {
	Role  string `json:"role" validate:"required,oneof=co-parent caregiver"`
	Email string `json:"email" validate:"omitempty,email"`
}

type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required,max=64"`
}

package children

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	accessTTL   = time.Hour
	activityTTL = 5 * time.Minute
)

// Caches holds the per-user accessible-children cache and the per-child
// last-activity cache. Both are invalidated explicitly when the underlying
// rows change; the TTLs are a backstop.
type Caches struct {
	access   *gocache.Cache
	activity *gocache.Cache
}

func NewCaches() *Caches {
	return &Caches{
		access:   gocache.New(accessTTL, 10*time.Minute),
		activity: gocache.New(activityTTL, time.Minute),
	}
}

// Activities are the last-activity timestamps shown on child list responses.
type Activities struct {
	LastFeeding      *time.Time
	LastDiaperChange *time.Time
	LastNap          *time.Time
}

func accessKey(userID string) string    { return "accessible_children_" + userID }
func activityKey(childID string) string { return "child_activities_" + childID }

func (cc *Caches) AccessibleIDs(userID string) ([]string, bool) {
	if v, ok := cc.access.Get(accessKey(userID)); ok {
		ids, ok := v.([]string)
		return ids, ok
	}
	return nil, false
}

func (cc *Caches) SetAccessibleIDs(userID string, ids []string) {
	cc.access.Set(accessKey(userID), ids, accessTTL)
}

// InvalidateUser drops the accessible-children entry for a user. Called when
// a child or share row for that user changes.
func (cc *Caches) InvalidateUser(userID string) {
	cc.access.Delete(accessKey(userID))
}

func (cc *Caches) Activity(childID string) (Activities, bool) {
	if v, ok := cc.activity.Get(activityKey(childID)); ok {
		a, ok := v.(Activities)
		return a, ok
	}
	return Activities{}, false
}

func (cc *Caches) SetActivity(childID string, a Activities) {
	cc.activity.Set(activityKey(childID), a, activityTTL)
}

// InvalidateActivity drops the last-activity entry for a child. Called when
// any tracking record for the child is created, updated or deleted.
func (cc *Caches) InvalidateActivity(childID string) {
	cc.activity.Delete(activityKey(childID))
}

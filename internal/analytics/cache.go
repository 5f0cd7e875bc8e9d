package analytics

import (
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	trendTTL  = time.Hour
	todayTTL  = 5 * time.Minute
	weeklyTTL = 10 * time.Minute
)

// Cache stores rendered analytics responses. It satisfies
// tracking.AnalyticsInvalidator so record writes can drop a child's entries.
type Cache struct {
	c *gocache.Cache
}

func NewCache() *Cache {
	return &Cache{c: gocache.New(trendTTL, 10*time.Minute)}
}

func trendKey(kind, childID string, days int) string {
	return "analytics:" + kind + ":" + childID + ":" + strconv.Itoa(days)
}

func summaryKey(kind, childID string) string {
	return "analytics:" + kind + ":" + childID
}

func (ca *Cache) get(key string) (any, bool) {
	return ca.c.Get(key)
}

func (ca *Cache) set(key string, v any, ttl time.Duration) {
	ca.c.Set(key, v, ttl)
}

// InvalidateChild drops every cached analytics entry for the child,
// whatever the kind or window.
func (ca *Cache) InvalidateChild(childID string) {
	for key := range ca.c.Items() {
		if strings.Contains(key, ":"+childID) {
			ca.c.Delete(key)
		}
	}
}

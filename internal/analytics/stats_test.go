package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateTrend(t *testing.T) {
	tests := []struct {
		name string
		vals []float64
		want string
	}{
		{"too short", []float64{5}, TrendStable},
		{"flat", []float64{4, 4, 4, 4}, TrendStable},
		{"within threshold", []float64{10, 10, 11, 10}, TrendStable},
		{"increasing", []float64{2, 2, 4, 4}, TrendIncreasing},
		{"decreasing", []float64{6, 6, 3, 3}, TrendDecreasing},
		{"from zero", []float64{0, 0, 2, 3}, TrendIncreasing},
		{"all zero", []float64{0, 0, 0, 0}, TrendStable},
		{"odd length puts middle in second half", []float64{2, 2, 9, 4, 4}, TrendIncreasing},
		{"middle spike counts toward second half", []float64{0, 0, 9, 0, 0}, TrendIncreasing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateTrend(tt.vals))
		})
	}
}

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, variance(nil))
	assert.Equal(t, 0.0, variance([]float64{7, 7, 7}))
	// population variance of {2,4,4,4,5,5,7,9} is exactly 4
	assert.Equal(t, 4.0, variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}))
	assert.Equal(t, 0.25, variance([]float64{1, 2, 1, 2}))
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{3, 3, 3, 9})
	assert.Equal(t, 4.5, s.AvgPerDay)
	assert.Equal(t, TrendIncreasing, s.Trend)
	assert.Equal(t, 6.75, s.Variance)
}

func TestDayKeys(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	keys := dayKeys(3, now)
	assert.Equal(t, []string{"2026-03-08", "2026-03-09", "2026-03-10"}, keys)
}

func TestCacheInvalidateChild(t *testing.T) {
	c := NewCache()
	c.set(trendKey("feedings", "child-a", 30), 1, trendTTL)
	c.set(trendKey("sleep", "child-a", 7), 2, trendTTL)
	c.set(summaryKey("today", "child-a"), 3, todayTTL)
	c.set(trendKey("feedings", "child-b", 30), 4, trendTTL)

	c.InvalidateChild("child-a")

	_, ok := c.get(trendKey("feedings", "child-a", 30))
	assert.False(t, ok)
	_, ok = c.get(trendKey("sleep", "child-a", 7))
	assert.False(t, ok)
	_, ok = c.get(summaryKey("today", "child-a"))
	assert.False(t, ok)
	_, ok = c.get(trendKey("feedings", "child-b", 30))
	assert.True(t, ok)
}

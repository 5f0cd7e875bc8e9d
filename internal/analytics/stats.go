package analytics

import (
	"math"
	"time"
)

const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// Summary is attached to every trend response.
type Summary struct {
	AvgPerDay float64 `json:"avg_per_day"`
	Trend     string  `json:"trend"`
	Variance  float64 `json:"variance"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// variance is the population variance rounded to two decimals.
func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return round2(sum / float64(len(vals)))
}

// calculateTrend compares the mean of the first half of the series against
// the second half. Odd-length series put the middle value in the second
// half. A move of more than 10% either way counts as a trend.
func calculateTrend(vals []float64) string {
	if len(vals) < 2 {
		return TrendStable
	}
	half := len(vals) / 2
	first := mean(vals[:half])
	second := mean(vals[half:])
	if first == 0 {
		if second > 0 {
			return TrendIncreasing
		}
		return TrendStable
	}
	change := (second - first) / first
	switch {
	case change > 0.10:
		return TrendIncreasing
	case change < -0.10:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func summarize(counts []float64) Summary {
	return Summary{
		AvgPerDay: round2(mean(counts)),
		Trend:     calculateTrend(counts),
		Variance:  variance(counts),
	}
}

// dayKeys returns the calendar days of the window oldest first, ending
// today. Used to gap-fill daily buckets.
func dayKeys(days int, now time.Time) []string {
	keys := make([]string, 0, days)
	start := now.AddDate(0, 0, -(days - 1))
	for i := 0; i < days; i++ {
		keys = append(keys, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return keys
}

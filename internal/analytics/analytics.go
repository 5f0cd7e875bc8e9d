// Package analytics aggregates tracking records into daily trends, roll-up
// summaries and downloadable reports.
package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Service struct {
	Pool  *pgxpool.Pool
	Cache *Cache
}

func NewService(pool *pgxpool.Pool, cache *Cache) *Service {
	return &Service{Pool: pool, Cache: cache}
}

type FeedingDay struct {
	Date           string   `json:"date"`
	BottleCount    int      `json:"bottle_count"`
	BreastCount    int      `json:"breast_count"`
	TotalCount     int      `json:"total_count"`
	TotalTenthsOz  int      `json:"total_tenths_oz"`
	AvgDurationMin *float64 `json:"avg_duration_minutes"`
}

type FeedingTrends struct {
	ChildID string       `json:"child_id"`
	Days    int          `json:"days"`
	Daily   []FeedingDay `json:"daily"`
	Summary Summary      `json:"summary"`
}

type DiaperDay struct {
	Date  string `json:"date"`
	Wet   int    `json:"wet"`
	Dirty int    `json:"dirty"`
	Both  int    `json:"both"`
	Total int    `json:"total"`
}

type DiaperPatterns struct {
	ChildID   string         `json:"child_id"`
	Days      int            `json:"days"`
	Daily     []DiaperDay    `json:"daily"`
	Breakdown map[string]int `json:"breakdown"`
	Summary   Summary        `json:"summary"`
}

type SleepDay struct {
	Date       string   `json:"date"`
	NapCount   int      `json:"nap_count"`
	TotalMin   int      `json:"total_minutes"`
	AvgNapMin  *float64 `json:"avg_nap_minutes"`
}

type SleepSummary struct {
	ChildID string     `json:"child_id"`
	Days    int        `json:"days"`
	Daily   []SleepDay `json:"daily"`
	Summary Summary    `json:"summary"`
}

func windowStart(days int, now time.Time) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -(days - 1))
}

// Feedings builds the feeding trend for the window, gap-filling days with no
// records.
func (s *Service) Feedings(ctx context.Context, childID string, days int) (*FeedingTrends, error) {
	key := trendKey("feedings", childID, days)
	if v, ok := s.Cache.get(key); ok {
		return v.(*FeedingTrends), nil
	}

	now := time.Now().UTC()
	rows, err := s.Pool.Query(ctx,
		`SELECT fed_at::date::text,
		        COUNT(*) FILTER (WHERE feeding_type = 'bottle'),
		        COUNT(*) FILTER (WHERE feeding_type = 'breast'),
		        COUNT(*),
		        COALESCE(SUM(amount_tenths_oz), 0),
		        AVG(duration_minutes)
		 FROM feedings
		 WHERE child_id = $1::uuid AND fed_at >= $2
		 GROUP BY fed_at::date`,
		childID, windowStart(days, now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDay := map[string]FeedingDay{}
	for rows.Next() {
		var d FeedingDay
		if err := rows.Scan(&d.Date, &d.BottleCount, &d.BreastCount, &d.TotalCount, &d.TotalTenthsOz, &d.AvgDurationMin); err != nil {
			return nil, err
		}
		if d.AvgDurationMin != nil {
			v := round2(*d.AvgDurationMin)
			d.AvgDurationMin = &v
		}
		byDay[d.Date] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	daily := make([]FeedingDay, 0, days)
	counts := make([]float64, 0, days)
	for _, day := range dayKeys(days, now) {
		d, ok := byDay[day]
		if !ok {
			d = FeedingDay{Date: day}
		}
		daily = append(daily, d)
		counts = append(counts, float64(d.TotalCount))
	}

	out := &FeedingTrends{ChildID: childID, Days: days, Daily: daily, Summary: summarize(counts)}
	s.Cache.set(key, out, trendTTL)
	return out, nil
}

// Diapers builds the diaper pattern trend plus a whole-window type breakdown.
func (s *Service) Diapers(ctx context.Context, childID string, days int) (*DiaperPatterns, error) {
	key := trendKey("diapers", childID, days)
	if v, ok := s.Cache.get(key); ok {
		return v.(*DiaperPatterns), nil
	}

	now := time.Now().UTC()
	rows, err := s.Pool.Query(ctx,
		`SELECT changed_at::date::text,
		        COUNT(*) FILTER (WHERE change_type = 'wet'),
		        COUNT(*) FILTER (WHERE change_type = 'dirty'),
		        COUNT(*) FILTER (WHERE change_type = 'both'),
		        COUNT(*)
		 FROM diaper_changes
		 WHERE child_id = $1::uuid AND changed_at >= $2
		 GROUP BY changed_at::date`,
		childID, windowStart(days, now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDay := map[string]DiaperDay{}
	for rows.Next() {
		var d DiaperDay
		if err := rows.Scan(&d.Date, &d.Wet, &d.Dirty, &d.Both, &d.Total); err != nil {
			return nil, err
		}
		byDay[d.Date] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	daily := make([]DiaperDay, 0, days)
	counts := make([]float64, 0, days)
	breakdown := map[string]int{"wet": 0, "dirty": 0, "both": 0}
	for _, day := range dayKeys(days, now) {
		d, ok := byDay[day]
		if !ok {
			d = DiaperDay{Date: day}
		}
		daily = append(daily, d)
		counts = append(counts, float64(d.Total))
		breakdown["wet"] += d.Wet
		breakdown["dirty"] += d.Dirty
		breakdown["both"] += d.Both
	}

	out := &DiaperPatterns{ChildID: childID, Days: days, Daily: daily, Breakdown: breakdown, Summary: summarize(counts)}
	s.Cache.set(key, out, trendTTL)
	return out, nil
}

// Sleep builds the nap trend. Only ended naps contribute minutes.
func (s *Service) Sleep(ctx context.Context, childID string, days int) (*SleepSummary, error) {
	key := trendKey("sleep", childID, days)
	if v, ok := s.Cache.get(key); ok {
		return v.(*SleepSummary), nil
	}

	now := time.Now().UTC()
	rows, err := s.Pool.Query(ctx,
		`SELECT napped_at::date::text,
		        COUNT(*),
		        COALESCE(SUM(EXTRACT(EPOCH FROM (ended_at - napped_at)) / 60)::int, 0),
		        AVG(EXTRACT(EPOCH FROM (ended_at - napped_at)) / 60)
		 FROM naps
		 WHERE child_id = $1::uuid AND napped_at >= $2 AND ended_at IS NOT NULL
		 GROUP BY napped_at::date`,
		childID, windowStart(days, now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byDay := map[string]SleepDay{}
	for rows.Next() {
		var d SleepDay
		if err := rows.Scan(&d.Date, &d.NapCount, &d.TotalMin, &d.AvgNapMin); err != nil {
			return nil, err
		}
		if d.AvgNapMin != nil {
			v := round2(*d.AvgNapMin)
			d.AvgNapMin = &v
		}
		byDay[d.Date] = d
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	daily := make([]SleepDay, 0, days)
	counts := make([]float64, 0, days)
	for _, day := range dayKeys(days, now) {
		d, ok := byDay[day]
		if !ok {
			d = SleepDay{Date: day}
		}
		daily = append(daily, d)
		counts = append(counts, float64(d.NapCount))
	}

	out := &SleepSummary{ChildID: childID, Days: days, Daily: daily, Summary: summarize(counts)}
	s.Cache.set(key, out, trendTTL)
	return out, nil
}

type TodaySummary struct {
	ChildID        string     `json:"child_id"`
	Date           string     `json:"date"`
	Feedings       int        `json:"feedings"`
	BottleTenthsOz int        `json:"bottle_tenths_oz"`
	Diapers        int        `json:"diapers"`
	Naps           int        `json:"naps"`
	NapMinutes     int        `json:"nap_minutes"`
	LastFeeding    *time.Time `json:"last_feeding"`
	LastDiaper     *time.Time `json:"last_diaper"`
	LastNap        *time.Time `json:"last_nap"`
}

func (s *Service) Today(ctx context.Context, childID string) (*TodaySummary, error) {
	key := summaryKey("today", childID)
	if v, ok := s.Cache.get(key); ok {
		return v.(*TodaySummary), nil
	}

	now := time.Now().UTC()
	start := now.Truncate(24 * time.Hour)
	out := &TodaySummary{ChildID: childID, Date: start.Format("2006-01-02")}

	err := s.Pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM feedings WHERE child_id = $1::uuid AND fed_at >= $2),
		   (SELECT COALESCE(SUM(amount_tenths_oz), 0) FROM feedings WHERE child_id = $1::uuid AND fed_at >= $2),
		   (SELECT COUNT(*) FROM diaper_changes WHERE child_id = $1::uuid AND changed_at >= $2),
		   (SELECT COUNT(*) FROM naps WHERE child_id = $1::uuid AND napped_at >= $2),
		   (SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (ended_at - napped_at)) / 60)::int, 0)
		      FROM naps WHERE child_id = $1::uuid AND napped_at >= $2 AND ended_at IS NOT NULL),
		   (SELECT MAX(fed_at) FROM feedings WHERE child_id = $1::uuid),
		   (SELECT MAX(changed_at) FROM diaper_changes WHERE child_id = $1::uuid),
		   (SELECT MAX(napped_at) FROM naps WHERE child_id = $1::uuid)`,
		childID, start).Scan(
		&out.Feedings, &out.BottleTenthsOz, &out.Diapers, &out.Naps, &out.NapMinutes,
		&out.LastFeeding, &out.LastDiaper, &out.LastNap)
	if err != nil {
		return nil, err
	}

	s.Cache.set(key, out, todayTTL)
	return out, nil
}

type WeeklySummary struct {
	ChildID       string         `json:"child_id"`
	From          string         `json:"from"`
	To            string         `json:"to"`
	Feedings      int            `json:"feedings"`
	FeedingTypes  map[string]int `json:"feeding_types"`
	Diapers       int            `json:"diapers"`
	DiaperTypes   map[string]int `json:"diaper_types"`
	Naps          int            `json:"naps"`
	NapMinutes    int            `json:"nap_minutes"`
	AvgNapMinutes float64        `json:"avg_nap_minutes"`
}

func (s *Service) Weekly(ctx context.Context, childID string) (*WeeklySummary, error) {
	key := summaryKey("weekly", childID)
	if v, ok := s.Cache.get(key); ok {
		return v.(*WeeklySummary), nil
	}

	now := time.Now().UTC()
	start := windowStart(7, now)
	out := &WeeklySummary{
		ChildID:      childID,
		From:         start.Format("2006-01-02"),
		To:           now.Format("2006-01-02"),
		FeedingTypes: map[string]int{},
		DiaperTypes:  map[string]int{},
	}

	var bottle, breast, wet, dirty, both int
	var avgNap *float64
	err := s.Pool.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM feedings WHERE child_id = $1::uuid AND fed_at >= $2),
		   (SELECT COUNT(*) FROM feedings WHERE child_id = $1::uuid AND fed_at >= $2 AND feeding_type = 'bottle'),
		   (SELECT COUNT(*) FROM feedings WHERE child_id = $1::uuid AND fed_at >= $2 AND feeding_type = 'breast'),
		   (SELECT COUNT(*) FROM diaper_changes WHERE child_id = $1::uuid AND changed_at >= $2),
		   (SELECT COUNT(*) FROM diaper_changes WHERE child_id = $1::uuid AND changed_at >= $2 AND change_type = 'wet'),
		   (SELECT COUNT(*) FROM diaper_changes WHERE child_id = $1::uuid AND changed_at >= $2 AND change_type = 'dirty'),
		   (SELECT COUNT(*) FROM diaper_changes WHERE child_id = $1::uuid AND changed_at >= $2 AND change_type = 'both'),
		   (SELECT COUNT(*) FROM naps WHERE child_id = $1::uuid AND napped_at >= $2),
		   (SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (ended_at - napped_at)) / 60)::int, 0)
		      FROM naps WHERE child_id = $1::uuid AND napped_at >= $2 AND ended_at IS NOT NULL),
		   (SELECT AVG(EXTRACT(EPOCH FROM (ended_at - napped_at)) / 60)
		      FROM naps WHERE child_id = $1::uuid AND napped_at >= $2 AND ended_at IS NOT NULL)`,
		childID, start).Scan(
		&out.Feedings, &bottle, &breast,
		&out.Diapers, &wet, &dirty, &both,
		&out.Naps, &out.NapMinutes, &avgNap)
	if err != nil {
		return nil, err
	}
	out.FeedingTypes["bottle"] = bottle
	out.FeedingTypes["breast"] = breast
	out.DiaperTypes["wet"] = wet
	out.DiaperTypes["dirty"] = dirty
	out.DiaperTypes["both"] = both
	if avgNap != nil {
		out.AvgNapMinutes = round2(*avgNap)
	}

	s.Cache.set(key, out, weeklyTTL)
	return out, nil
}

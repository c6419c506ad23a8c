// Package summary aggregates activity totals over a period and compares them with the period before.
package summary

import (
	"sort"
	"time"

	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/history"
	"example.com/fitprogress/internal/sport"
)

// Period names a supported summary window.
type Period string

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
)

var periodDays = map[Period]int{
	Week:  7,
	Month: 30,
	Year:  365,
}

// ParsePeriod rejects unknown period names.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodDays[p]; !ok {
		return "", &apperr.ConfigurationError{Key: "period", Value: s}
	}
	return p, nil
}

// Duration returns the window length of p.
func (p Period) Duration() time.Duration {
	return time.Duration(periodDays[p]) * 24 * time.Hour
}

// Totals aggregates one window.
type Totals struct {
	ActivityCount        int     `json:"activity_count"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	TotalDistanceMeters  float64 `json:"total_distance_meters"`
	ActiveDays           int     `json:"active_days"`
	SportTypesCount      int     `json:"sport_types_count"`
}

// SportTotals aggregates one sport inside the current window.
type SportTotals struct {
	SportType            sport.Type `json:"sport_type"`
	ActivityCount        int        `json:"activity_count"`
	TotalDurationSeconds float64    `json:"total_duration_seconds"`
	TotalDistanceMeters  float64    `json:"total_distance_meters"`
}

// Delta is current minus previous.
type Delta struct {
	ActivityCount        int     `json:"activity_count"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	TotalDistanceMeters  float64 `json:"total_distance_meters"`
}

// Report is the summary of one period ending at GeneratedAt.
type Report struct {
	Period      Period        `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`
	Current     Totals        `json:"current"`
	Previous    Totals        `json:"previous"`
	Breakdown   []SportTotals `json:"sport_breakdown"`
	Delta       Delta         `json:"delta"`
}

// Build summarises activities for the window ending at now. The current window is [now-p, now], the
// previous one [now-2p, now-p). Active days are counted by the date of each start time in loc, or in
// its own location when loc is nil.
func Build(activities []history.Activity, period string, now time.Time, loc *time.Location) (Report, error) {
	p, err := ParsePeriod(period)
	if err != nil {
		return Report{}, err
	}

	currentStart := now.Add(-p.Duration())
	previousStart := currentStart.Add(-p.Duration())

	var current, previous []history.Activity
	for _, a := range activities {
		switch {
		case !a.StartTime.Before(currentStart) && !a.StartTime.After(now):
			current = append(current, a)
		case !a.StartTime.Before(previousStart) && a.StartTime.Before(currentStart):
			previous = append(previous, a)
		}
	}

	r := Report{
		Period:      p,
		GeneratedAt: now,
		Current:     totals(current, loc),
		Previous:    totals(previous, loc),
		Breakdown:   breakdown(current),
	}
	r.Delta = Delta{
		ActivityCount:        r.Current.ActivityCount - r.Previous.ActivityCount,
		TotalDurationSeconds: r.Current.TotalDurationSeconds - r.Previous.TotalDurationSeconds,
		TotalDistanceMeters:  r.Current.TotalDistanceMeters - r.Previous.TotalDistanceMeters,
	}
	return r, nil
}

func totals(activities []history.Activity, loc *time.Location) Totals {
	days := make(map[string]struct{})
	sports := make(map[sport.Type]struct{})
	t := Totals{ActivityCount: len(activities)}
	for i, start := range history.StartTimes(activities, loc) {
		a := activities[i]
		t.TotalDurationSeconds += a.Duration()
		t.TotalDistanceMeters += a.Distance()
		days[start.Format(time.DateOnly)] = struct{}{}
		sports[a.SportType] = struct{}{}
	}
	t.ActiveDays = len(days)
	t.SportTypesCount = len(sports)
	return t
}

func breakdown(activities []history.Activity) []SportTotals {
	bySport := make(map[sport.Type]*SportTotals)
	for _, a := range activities {
		st, ok := bySport[a.SportType]
		if !ok {
			st = &SportTotals{SportType: a.SportType}
			bySport[a.SportType] = st
		}
		st.ActivityCount++
		st.TotalDurationSeconds += a.Duration()
		st.TotalDistanceMeters += a.Distance()
	}

	out := make([]SportTotals, 0, len(bySport))
	for _, st := range bySport {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SportType < out[j].SportType })
	return out
}

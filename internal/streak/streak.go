// Package streak derives consecutive-day activity streaks from activity start times.
package streak

import (
	"sort"
	"time"
)

// Stats is recomputed from the activity history on every request; it is never stored.
type Stats struct {
	CurrentStreak   int `json:"current_streak"`
	LongestStreak   int `json:"longest_streak"`
	TotalActiveDays int `json:"total_active_days"`
	TotalActivities int `json:"total_activities"`
}

// date is a calendar day with the time-of-day and location stripped.
type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{year: y, month: m, day: d}
}

func (d date) daysSince(other date) int {
	a := time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
	b := time.Date(other.year, other.month, other.day, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// Calculate buckets timestamps by the calendar date in their own location and measures runs of
// consecutive days. Today is the calendar date of now.
func Calculate(timestamps []time.Time, now time.Time) Stats {
	stats := Stats{TotalActivities: len(timestamps)}
	dates := distinctDates(timestamps)
	stats.TotalActiveDays = len(dates)
	if len(dates) == 0 {
		return stats
	}

	stats.CurrentStreak = current(dates, dateOf(now))
	stats.LongestStreak = longest(dates)
	return stats
}

// distinctDates returns each active date once, oldest first.
func distinctDates(timestamps []time.Time) []date {
	seen := make(map[date]struct{}, len(timestamps))
	out := make([]date, 0, len(timestamps))
	for _, ts := range timestamps {
		d := dateOf(ts)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].daysSince(out[j]) < 0 })
	return out
}

func current(dates []date, today date) int {
	latest := dates[len(dates)-1]
	if today.daysSince(latest) > 1 {
		return 0
	}

	run := 1
	for i := len(dates) - 1; i > 0; i-- {
		if dates[i].daysSince(dates[i-1]) != 1 {
			break
		}
		run++
	}
	return run
}

func longest(dates []date) int {
	best, run := 1, 1
	for i := 1; i < len(dates); i++ {
		switch gap := dates[i].daysSince(dates[i-1]); {
		case gap == 0:
			continue
		case gap == 1:
			run++
		default:
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

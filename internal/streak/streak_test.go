package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func daysAgo(n int, hour int) time.Time {
	d := now.AddDate(0, 0, -n)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, time.UTC)
}

func TestCalculateEmpty(t *testing.T) {
	require.Equal(t, Stats{}, Calculate(nil, now))
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name       string
		timestamps []time.Time
		want       Stats
	}{
		{
			name:       "only today",
			timestamps: []time.Time{daysAgo(0, 7)},
			want:       Stats{CurrentStreak: 1, LongestStreak: 1, TotalActiveDays: 1, TotalActivities: 1},
		},
		{
			name:       "three consecutive days",
			timestamps: []time.Time{daysAgo(0, 7), daysAgo(1, 7), daysAgo(2, 7)},
			want:       Stats{CurrentStreak: 3, LongestStreak: 3, TotalActiveDays: 3, TotalActivities: 3},
		},
		{
			name:       "gap before today",
			timestamps: []time.Time{daysAgo(0, 7), daysAgo(3, 7)},
			want:       Stats{CurrentStreak: 1, LongestStreak: 1, TotalActiveDays: 2, TotalActivities: 2},
		},
		{
			name: "older longer streak",
			timestamps: []time.Time{
				daysAgo(13, 9), daysAgo(12, 9), daysAgo(11, 9), daysAgo(10, 9),
				daysAgo(1, 9), daysAgo(0, 9),
			},
			want: Stats{CurrentStreak: 2, LongestStreak: 4, TotalActiveDays: 6, TotalActivities: 6},
		},
		{
			name:       "ending yesterday still current",
			timestamps: []time.Time{daysAgo(1, 9), daysAgo(2, 9)},
			want:       Stats{CurrentStreak: 2, LongestStreak: 2, TotalActiveDays: 2, TotalActivities: 2},
		},
		{
			name:       "broken streak",
			timestamps: []time.Time{daysAgo(2, 9), daysAgo(3, 9), daysAgo(4, 9)},
			want:       Stats{CurrentStreak: 0, LongestStreak: 3, TotalActiveDays: 3, TotalActivities: 3},
		},
		{
			name:       "same day counted once",
			timestamps: []time.Time{daysAgo(0, 6), daysAgo(0, 12), daysAgo(0, 20), daysAgo(1, 8)},
			want:       Stats{CurrentStreak: 2, LongestStreak: 2, TotalActiveDays: 2, TotalActivities: 4},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Calculate(tc.timestamps, now))
		})
	}
}

func TestCalculateOrderIndependent(t *testing.T) {
	ordered := []time.Time{daysAgo(5, 9), daysAgo(4, 9), daysAgo(3, 9), daysAgo(0, 9)}
	shuffled := []time.Time{daysAgo(0, 9), daysAgo(4, 9), daysAgo(5, 9), daysAgo(3, 9)}
	require.Equal(t, Calculate(ordered, now), Calculate(shuffled, now))
}

func TestCalculateUsesTimestampLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 23:30 UTC on the 14th is already the 15th in Tokyo.
	late := time.Date(2024, 3, 14, 23, 30, 0, 0, time.UTC)

	utc := Calculate([]time.Time{late, daysAgo(0, 9)}, now)
	require.Equal(t, 2, utc.CurrentStreak)
	require.Equal(t, 2, utc.TotalActiveDays)

	local := Calculate([]time.Time{late.In(tokyo), daysAgo(0, 9)}, now)
	require.Equal(t, 1, local.CurrentStreak)
	require.Equal(t, 1, local.TotalActiveDays)
}

func TestLongestNeverBelowCurrent(t *testing.T) {
	for n := 0; n < 20; n++ {
		var ts []time.Time
		for i := 0; i <= n; i += 1 + i%3 {
			ts = append(ts, daysAgo(i, 10))
		}
		s := Calculate(ts, now)
		require.GreaterOrEqual(t, s.LongestStreak, s.CurrentStreak)
		require.LessOrEqual(t, s.TotalActiveDays, s.TotalActivities)
	}
}

package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/history"
	"example.com/fitprogress/internal/sport"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func act(s sport.Type, start time.Time, duration, distance float64) history.Activity {
	a := history.Activity{UserID: "user-1", SportType: s, StartTime: start, DurationSeconds: f(duration)}
	if distance > 0 {
		a.DistanceMeters = f(distance)
	}
	return a
}

func TestBuildWeek(t *testing.T) {
	acts := []history.Activity{
		act(sport.Running, now.Add(-24*time.Hour), 1800, 5000),
		act(sport.Biking, now.Add(-48*time.Hour), 3600, 10000),
	}

	r, err := Build(acts, "week", now, nil)
	require.NoError(t, err)
	require.Equal(t, Week, r.Period)
	require.Equal(t, Totals{
		ActivityCount:        2,
		TotalDurationSeconds: 5400,
		TotalDistanceMeters:  15000,
		ActiveDays:           2,
		SportTypesCount:      2,
	}, r.Current)
	require.Equal(t, Totals{}, r.Previous)
	require.Equal(t, []SportTotals{
		{SportType: sport.Biking, ActivityCount: 1, TotalDurationSeconds: 3600, TotalDistanceMeters: 10000},
		{SportType: sport.Running, ActivityCount: 1, TotalDurationSeconds: 1800, TotalDistanceMeters: 5000},
	}, r.Breakdown)
	require.Equal(t, Delta{ActivityCount: 2, TotalDurationSeconds: 5400, TotalDistanceMeters: 15000}, r.Delta)
}

func TestBuildWindowBoundaries(t *testing.T) {
	week := 7 * 24 * time.Hour
	acts := []history.Activity{
		act(sport.Yoga, now, 600, 0),                        // current, inclusive end
		act(sport.Yoga, now.Add(-week), 600, 0),             // current, inclusive start
		act(sport.Yoga, now.Add(-week-time.Second), 900, 0), // previous
		act(sport.Yoga, now.Add(-2*week), 900, 0),           // previous, inclusive start
		act(sport.Yoga, now.Add(-2*week-time.Second), 60, 0),
		act(sport.Yoga, now.Add(time.Hour), 60, 0),
	}

	r, err := Build(acts, "week", now, nil)
	require.NoError(t, err)
	require.Equal(t, 2, r.Current.ActivityCount)
	require.Equal(t, 2, r.Previous.ActivityCount)
	require.Equal(t, 1200.0, r.Current.TotalDurationSeconds)
	require.Equal(t, 1800.0, r.Previous.TotalDurationSeconds)
	require.Equal(t, -600.0, r.Delta.TotalDurationSeconds)
	require.Zero(t, r.Delta.ActivityCount)
}

func TestBuildActiveDaysUseLocation(t *testing.T) {
	acts := []history.Activity{
		act(sport.HIIT, time.Date(2024, 3, 14, 23, 0, 0, 0, time.UTC), 600, 0),
		act(sport.HIIT, time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC), 600, 0),
	}

	r, err := Build(acts, "month", now, nil)
	require.NoError(t, err)
	require.Equal(t, 2, r.Current.ActiveDays)

	r, err = Build(acts, "month", now, time.FixedZone("EST", -5*3600))
	require.NoError(t, err)
	require.Equal(t, 1, r.Current.ActiveDays)
}

func TestBuildUnknownPeriod(t *testing.T) {
	_, err := Build(nil, "fortnight", now, nil)
	require.ErrorIs(t, err, apperr.ErrConfiguration)
	require.EqualError(t, err, `unsupported period "fortnight"`)
}

func TestPeriodDurations(t *testing.T) {
	for name, days := range map[string]int{"week": 7, "month": 30, "year": 365} {
		p, err := ParsePeriod(name)
		require.NoError(t, err)
		require.Equal(t, time.Duration(days)*24*time.Hour, p.Duration())
	}
}

func TestBuildEmptyHistory(t *testing.T) {
	r, err := Build(nil, "year", now, nil)
	require.NoError(t, err)
	require.Equal(t, Totals{}, r.Current)
	require.Empty(t, r.Breakdown)
	require.NotNil(t, r.Breakdown)
}

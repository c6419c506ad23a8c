package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestActivityAccessorsDefaultToZero(t *testing.T) {
	distance, duration := 4200.0, 1260.0
	logged := Activity{DistanceMeters: &distance, DurationSeconds: &duration}
	require.Equal(t, 4200.0, logged.Distance())
	require.Equal(t, 1260.0, logged.Duration())

	var bare Activity
	require.Zero(t, bare.Distance())
	require.Zero(t, bare.Duration())
}

func TestStartTimesConvertsLocation(t *testing.T) {
	start := time.Date(2024, 3, 15, 2, 30, 0, 0, time.UTC)
	activities := []Activity{{StartTime: start}}

	require.Equal(t, start, StartTimes(activities, nil)[0])

	eastern := time.FixedZone("EDT", -4*60*60)
	local := StartTimes(activities, eastern)[0]
	require.Equal(t, 14, local.Day())
	require.True(t, local.Equal(start))
}

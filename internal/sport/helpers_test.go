package sport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func minutes(v float64) *float64 { return &v }

func TestWorkoutVolume(t *testing.T) {
	w := LiftingWorkout{Exercises: []Exercise{
		{Name: "Bench", Sets: []LiftSet{{Weight: 80, Reps: 8}, {Weight: 85, Reps: 6}}},
		{Name: "Row", Sets: []LiftSet{{Weight: 60, Reps: 10}}},
	}}

	require.Equal(t, 1150.0, w.Exercises[0].Volume())
	require.Equal(t, 1750.0, w.Volume())
	require.Equal(t, 3, w.SetCount())
	require.Equal(t, "2 exercises, 3 sets, 1750 kg total volume", w.Summary())

	single := LiftingWorkout{Exercises: []Exercise{{Name: "Deadlift", Sets: []LiftSet{{Weight: 140, Reps: 5}}}}}
	require.Equal(t, "1 exercise, 1 set, 700 kg total volume", single.Summary())
}

func TestYogaSummary(t *testing.T) {
	require.Equal(t, "Yoga session", YogaSession{}.Summary())

	y := YogaSession{FlowType: "vinyasa", Difficulty: "intermediate", Poses: []string{"Tree", "Warrior II"}, ActualDurationMinutes: minutes(45)}
	require.Equal(t, "Vinyasa flow, intermediate, 2 poses, 45 min", y.Summary())
}

func TestDurationAccuracy(t *testing.T) {
	cases := []struct {
		name     string
		target   *float64
		actual   *float64
		accuracy float64
		met      bool
	}{
		{name: "exact", target: minutes(60), actual: minutes(60), accuracy: 0, met: true},
		{name: "within tolerance", target: minutes(60), actual: minutes(54), accuracy: 10, met: true},
		{name: "over tolerance", target: minutes(60), actual: minutes(70), accuracy: 100.0 / 6, met: false},
		{name: "capped", target: minutes(10), actual: minutes(45), accuracy: 100, met: false},
		{name: "no target", actual: minutes(45), accuracy: 0, met: false},
		{name: "zero target", target: minutes(0), actual: minutes(45), accuracy: 0, met: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			y := YogaSession{TargetDurationMinutes: tc.target, ActualDurationMinutes: tc.actual}
			require.InDelta(t, tc.accuracy, y.DurationAccuracy(), 1e-9)
			require.Equal(t, tc.met, y.MetTarget())
		})
	}
}

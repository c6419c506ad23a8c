package sport

import (
	"fmt"
	"math"
	"strings"
)

// TargetTolerancePercent is the largest deviation from the target duration that still counts as met.
const TargetTolerancePercent = 10.0

// Volume is the weight moved in one exercise, the sum of weight times reps over its sets.
func (e Exercise) Volume() float64 {
	var total float64
	for _, s := range e.Sets {
		total += s.Weight * s.Reps
	}
	return total
}

// Volume sums the volume of every exercise in the workout.
func (w LiftingWorkout) Volume() float64 {
	var total float64
	for _, e := range w.Exercises {
		total += e.Volume()
	}
	return total
}

// SetCount returns the number of sets across all exercises.
func (w LiftingWorkout) SetCount() int {
	n := 0
	for _, e := range w.Exercises {
		n += len(e.Sets)
	}
	return n
}

// Summary renders the workout on one line, e.g. "3 exercises, 9 sets, 4200 kg total volume".
func (w LiftingWorkout) Summary() string {
	return fmt.Sprintf("%s, %s, %.0f kg total volume",
		plural(len(w.Exercises), "exercise"), plural(w.SetCount(), "set"), w.Volume())
}

// Summary renders the session on one line from whichever fields are present.
func (y YogaSession) Summary() string {
	parts := make([]string, 0, 4)
	if y.FlowType != "" {
		parts = append(parts, strings.ToUpper(y.FlowType[:1])+y.FlowType[1:]+" flow")
	}
	if y.Difficulty != "" {
		parts = append(parts, y.Difficulty)
	}
	if len(y.Poses) > 0 {
		parts = append(parts, plural(len(y.Poses), "pose"))
	}
	if y.ActualDurationMinutes != nil {
		parts = append(parts, fmt.Sprintf("%.0f min", *y.ActualDurationMinutes))
	}
	if len(parts) == 0 {
		return "Yoga session"
	}
	return strings.Join(parts, ", ")
}

// DurationAccuracy returns how far the actual duration deviated from the target, as a percentage of
// the target capped at 100. It is 0 when either duration is missing or the target is zero.
func (y YogaSession) DurationAccuracy() float64 {
	if y.TargetDurationMinutes == nil || y.ActualDurationMinutes == nil || *y.TargetDurationMinutes == 0 {
		return 0
	}
	target := *y.TargetDurationMinutes
	deviation := math.Abs(*y.ActualDurationMinutes-target) / target * 100
	return math.Min(deviation, 100)
}

// MetTarget reports whether the session landed within TargetTolerancePercent of its target.
func (y YogaSession) MetTarget() bool {
	if y.TargetDurationMinutes == nil || y.ActualDurationMinutes == nil {
		return false
	}
	return y.DurationAccuracy() <= TargetTolerancePercent
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

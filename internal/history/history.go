// Package history holds the read model of a user's logged activities shared by the derivation
// packages.
package history

import (
	"encoding/json"
	"time"

	"example.com/fitprogress/internal/sport"
)

// Activity is a logged workout as read back from the activity store.
type Activity struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	SportType       sport.Type      `json:"sport_type"`
	StartTime       time.Time       `json:"start_time"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
	DistanceMeters  *float64        `json:"distance_meters,omitempty"`
	SportData       json.RawMessage `json:"sport_data,omitempty"`
}

// Distance returns the recorded distance or 0.
func (a Activity) Distance() float64 {
	if a.DistanceMeters == nil {
		return 0
	}
	return *a.DistanceMeters
}

// Duration returns the recorded duration or 0.
func (a Activity) Duration() float64 {
	if a.DurationSeconds == nil {
		return 0
	}
	return *a.DurationSeconds
}

// Social carries the counts owned by the social graph and photo collaborators.
type Social struct {
	FollowingCount int `json:"following_count"`
	PhotoCount     int `json:"photo_count"`
}

// StartTimes returns the start time of every activity, converted to loc when loc is non-nil.
func StartTimes(activities []Activity, loc *time.Location) []time.Time {
	out := make([]time.Time, len(activities))
	for i, a := range activities {
		if loc != nil {
			out[i] = a.StartTime.In(loc)
			continue
		}
		out[i] = a.StartTime
	}
	return out
}

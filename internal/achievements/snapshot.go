package achievements

import (
	"time"

	"example.com/fitprogress/internal/history"
	"example.com/fitprogress/internal/sport"
	"example.com/fitprogress/internal/streak"
)

const (
	earlyBirdBefore = 7
	nightOwlFrom    = 21
)

// Snapshot aggregates a user's history once per evaluation so every rule reads the same state.
type Snapshot struct {
	TotalActivities      int                `json:"total_activities"`
	SportCounts          map[sport.Type]int `json:"sport_counts"`
	CardioDistanceMeters float64            `json:"cardio_distance_meters"`
	LongestCardioMeters  float64            `json:"longest_cardio_meters"`
	Streak               streak.Stats       `json:"streak"`
	EarlyBird            bool               `json:"early_bird"`
	NightOwl             bool               `json:"night_owl"`
	FollowingCount       int                `json:"following_count"`
	PhotoCount           int                `json:"photo_count"`
}

// NewSnapshot summarises activities as of now. Start times are read in loc, or in their own
// location when loc is nil.
func NewSnapshot(activities []history.Activity, social history.Social, now time.Time, loc *time.Location) Snapshot {
	s := Snapshot{
		TotalActivities: len(activities),
		SportCounts:     make(map[sport.Type]int),
		FollowingCount:  social.FollowingCount,
		PhotoCount:      social.PhotoCount,
	}

	starts := history.StartTimes(activities, loc)
	for i, a := range activities {
		s.SportCounts[a.SportType]++

		if a.SportType.IsCardio() {
			d := a.Distance()
			s.CardioDistanceMeters += d
			if d > s.LongestCardioMeters {
				s.LongestCardioMeters = d
			}
		}

		hour := starts[i].Hour()
		if hour < earlyBirdBefore {
			s.EarlyBird = true
		}
		if hour >= nightOwlFrom {
			s.NightOwl = true
		}
	}

	if loc != nil {
		now = now.In(loc)
	}
	s.Streak = streak.Calculate(starts, now)
	return s
}

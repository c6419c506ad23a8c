// Package events defines the payloads exchanged with other services over Kafka.
package events

import (
	"encoding/json"
	"time"
)

// ActivityCreated is consumed when the activity service accepts a workout.
type ActivityCreated struct {
	ActivityID      string          `json:"activity_id"`
	UserID          string          `json:"user_id"`
	SportType       string          `json:"sport_type"`
	StartTime       time.Time       `json:"start_time"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
	DistanceMeters  *float64        `json:"distance_meters,omitempty"`
	SportData       json.RawMessage `json:"sport_data,omitempty"`
	Route           json.RawMessage `json:"route,omitempty"`
	Version         string          `json:"version,omitempty"`
}

// AchievementAwarded is published once per newly earned achievement.
type AchievementAwarded struct {
	AchievementID   string    `json:"achievement_id"`
	UserID          string    `json:"user_id"`
	AchievementType string    `json:"achievement_type"`
	Name            string    `json:"name"`
	ActivityID      string    `json:"activity_id,omitempty"`
	AchievedAt      time.Time `json:"achieved_at"`
}

// PersonalRecordUpdated is published whenever a record is set or improved.
type PersonalRecordUpdated struct {
	RecordID               string    `json:"record_id"`
	UserID                 string    `json:"user_id"`
	RecordType             string    `json:"record_type"`
	SportType              string    `json:"sport_type"`
	DistanceMeters         float64   `json:"distance_meters"`
	DurationSeconds        float64   `json:"duration_seconds"`
	PaceSecondsPerKm       float64   `json:"pace_seconds_per_km"`
	ActivityID             string    `json:"activity_id"`
	AchievedAt             time.Time `json:"achieved_at"`
	PreviousRecordSeconds  *float64  `json:"previous_record_seconds,omitempty"`
	PreviousDistanceMeters *float64  `json:"previous_distance_meters,omitempty"`
}

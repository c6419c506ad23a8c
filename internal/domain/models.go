package domain

import (
	"context"
	"time"

	"example.com/fitprogress/internal/achievements"
	"example.com/fitprogress/internal/history"
	"example.com/fitprogress/internal/records"
)

type (
	// Activity is the read model of a logged workout.
	Activity = history.Activity
	// SocialCounts carries follow and photo counts owned by other collaborators.
	SocialCounts = history.Social
	// EarnedAchievement is an awarded achievement row.
	EarnedAchievement = achievements.Earned
	// PersonalRecord is a stored best value.
	PersonalRecord = records.Record
)

// HistoryReader exposes a user's activity history and social counts.
type HistoryReader interface {
	ListActivities(ctx context.Context, userID string) ([]Activity, error)
	SocialCounts(ctx context.Context, userID string) (SocialCounts, error)
}

// AchievementStore persists awards. InsertAchievement is insert-if-absent on (user, type).
type AchievementStore interface {
	ListAchievements(ctx context.Context, userID string) ([]EarnedAchievement, error)
	InsertAchievement(ctx context.Context, a EarnedAchievement) (bool, error)
}

// RecordStore persists personal records, one row per (user, record type, sport).
type RecordStore interface {
	ListPersonalRecords(ctx context.Context, userID string) ([]PersonalRecord, error)
	UpsertPersonalRecord(ctx context.Context, r PersonalRecord) error
}

// Store is the full contract the Service depends on.
type Store interface {
	HistoryReader
	AchievementStore
	RecordStore
}

// TriggerInput describes the activity that prompted an evaluation. Every field but UserID is optional;
// when supplied, the metrics are used even if the activity is not yet visible in the history.
type TriggerInput struct {
	UserID          string     `json:"user_id"`
	ActivityID      string     `json:"activity_id,omitempty"`
	SportType       string     `json:"sport_type,omitempty"`
	DistanceMeters  *float64   `json:"distance_meters,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
}

// CheckResult reports what an evaluation newly produced.
type CheckResult struct {
	NewAchievements    []EarnedAchievement `json:"new_achievements"`
	NewPersonalRecords []records.Update    `json:"new_personal_records"`
	AchievementsCount  int                 `json:"achievements_count"`
	PRsCount           int                 `json:"prs_count"`
}

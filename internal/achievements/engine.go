// Package achievements evaluates the achievement catalog against a user's history and awards each
// achievement at most once.
package achievements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/fitprogress/internal/apperr"
)

// Earned is an awarded achievement. A user holds at most one per AchievementType.
type Earned struct {
	ID                     string         `json:"id,omitempty"`
	UserID                 string         `json:"user_id"`
	AchievementType        string         `json:"achievement_type"`
	AchievementName        string         `json:"achievement_name"`
	AchievementDescription string         `json:"achievement_description"`
	Metadata               map[string]any `json:"metadata,omitempty"`
	ActivityID             *string        `json:"activity_id,omitempty"`
	AchievedAt             time.Time      `json:"achieved_at"`
}

// Store persists awards. InsertAchievement reports false when the (user, type) row already exists;
// it may instead return an error matching apperr.ErrConflict.
type Store interface {
	ListAchievements(ctx context.Context, userID string) ([]Earned, error)
	InsertAchievement(ctx context.Context, a Earned) (bool, error)
}

// Status is the progress view of one catalog entry.
type Status struct {
	Type        string     `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Earned      bool       `json:"earned"`
	AchievedAt  *time.Time `json:"achieved_at,omitempty"`
}

// Engine evaluates the catalog for one user at a time.
type Engine struct {
	store   Store
	catalog []Definition
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the award timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCatalog replaces the built-in catalog.
func WithCatalog(defs []Definition) Option {
	return func(e *Engine) {
		e.catalog = defs
	}
}

// NewEngine builds an Engine over store using the built-in catalog.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, catalog: Catalog(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate awards every unearned definition the snapshot satisfies and returns the awards that were
// actually inserted. activityID may be empty.
func (e *Engine) Evaluate(ctx context.Context, userID, activityID string, snap Snapshot) ([]Earned, error) {
	existing, err := e.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	earned := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		earned[a.AchievementType] = struct{}{}
	}

	var awarded []Earned
	now := e.now().UTC()
	for _, def := range e.catalog {
		if _, ok := earned[def.Type]; ok {
			continue
		}
		if !def.Satisfied(snap) {
			continue
		}

		award := Earned{
			UserID:                 userID,
			AchievementType:        def.Type,
			AchievementName:        def.Name,
			AchievementDescription: def.Description,
			Metadata:               metadata(snap),
			AchievedAt:             now,
		}
		if activityID != "" {
			id := activityID
			award.ActivityID = &id
		}

		inserted, err := e.store.InsertAchievement(ctx, award)
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		if err != nil {
			return awarded, fmt.Errorf("insert achievement %s: %w", def.Type, err)
		}
		if inserted {
			awarded = append(awarded, award)
		}
	}
	return awarded, nil
}

// Progress lists every catalog entry with its earned state.
func (e *Engine) Progress(ctx context.Context, userID string) ([]Status, error) {
	existing, err := e.store.ListAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	byType := make(map[string]Earned, len(existing))
	for _, a := range existing {
		byType[a.AchievementType] = a
	}

	out := make([]Status, 0, len(e.catalog))
	for _, def := range e.catalog {
		st := Status{Type: def.Type, Name: def.Name, Description: def.Description}
		if a, ok := byType[def.Type]; ok {
			at := a.AchievedAt
			st.Earned = true
			st.AchievedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func metadata(s Snapshot) map[string]any {
	return map[string]any{
		"total_activities":       s.TotalActivities,
		"cardio_distance_meters": s.CardioDistanceMeters,
		"current_streak":         s.Streak.CurrentStreak,
	}
}

// Package memory provides an in-process Store for local development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/fitprogress/internal/domain"
	"example.com/fitprogress/internal/records"
)

type achievementKey struct {
	userID          string
	achievementType string
}

type recordKey struct {
	userID string
	key    records.Key
}

// Store keeps activities and derived rows in maps guarded by a single lock.
type Store struct {
	mu           sync.RWMutex
	activities   map[string][]domain.Activity
	social       map[string]domain.SocialCounts
	achievements map[achievementKey]domain.EarnedAchievement
	records      map[recordKey]domain.PersonalRecord
}

var _ domain.Store = (*Store)(nil)

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		activities:   make(map[string][]domain.Activity),
		social:       make(map[string]domain.SocialCounts),
		achievements: make(map[achievementKey]domain.EarnedAchievement),
		records:      make(map[recordKey]domain.PersonalRecord),
	}
}

// AddActivity records an activity, assigning an ID when missing, and returns the stored copy.
func (s *Store) AddActivity(_ context.Context, a domain.Activity) domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	if a.StartTime.IsZero() {
		a.StartTime = time.Now().UTC()
	}
	s.activities[a.UserID] = append(s.activities[a.UserID], a)
	return a
}

// SetSocialCounts replaces the follow and photo counts of a user.
func (s *Store) SetSocialCounts(userID string, counts domain.SocialCounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.social[userID] = counts
}

// ListActivities implements domain.HistoryReader. Activities are ordered by start time.
func (s *Store) ListActivities(_ context.Context, userID string) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Activity, len(s.activities[userID]))
	copy(out, s.activities[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// SocialCounts implements domain.HistoryReader.
func (s *Store) SocialCounts(_ context.Context, userID string) (domain.SocialCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.social[userID], nil
}

// ListAchievements implements domain.AchievementStore, oldest award first.
func (s *Store) ListAchievements(_ context.Context, userID string) ([]domain.EarnedAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.EarnedAchievement, 0)
	for key, a := range s.achievements {
		if key.userID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AchievedAt.Equal(out[j].AchievedAt) {
			return out[i].AchievementType < out[j].AchievementType
		}
		return out[i].AchievedAt.Before(out[j].AchievedAt)
	})
	return out, nil
}

// InsertAchievement implements domain.AchievementStore. It reports false when the user already holds
// the achievement.
func (s *Store) InsertAchievement(_ context.Context, a domain.EarnedAchievement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := achievementKey{userID: a.UserID, achievementType: a.AchievementType}
	if _, ok := s.achievements[key]; ok {
		return false, nil
	}
	if strings.TrimSpace(a.ID) == "" {
		a.ID = uuid.NewString()
	}
	s.achievements[key] = a
	return true, nil
}

// ListPersonalRecords implements domain.RecordStore.
func (s *Store) ListPersonalRecords(_ context.Context, userID string) ([]domain.PersonalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PersonalRecord, 0)
	for key, r := range s.records {
		if key.userID == userID {
			out = append(out, r)
		}
	}
	return records.NewBook(out).Records(), nil
}

// UpsertPersonalRecord implements domain.RecordStore. The row ID survives replacement.
func (s *Store) UpsertPersonalRecord(_ context.Context, r domain.PersonalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{userID: r.UserID, key: r.Key()}
	if existing, ok := s.records[key]; ok {
		r.ID = existing.ID
	}
	if strings.TrimSpace(r.ID) == "" {
		r.ID = uuid.NewString()
	}
	s.records[key] = r
	return nil
}

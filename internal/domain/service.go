// Package domain orchestrates progress derivation: achievement checks, personal records, streaks and
// summaries over a user's stored history.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"example.com/fitprogress/internal/achievements"
	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/history"
	"example.com/fitprogress/internal/logging"
	"example.com/fitprogress/internal/observability"
	"example.com/fitprogress/internal/records"
	"example.com/fitprogress/internal/sport"
	"example.com/fitprogress/internal/streak"
	"example.com/fitprogress/internal/summary"
)

// Service derives achievements, records, streaks and summaries.
type Service struct {
	store  Store
	engine *achievements.Engine
	logger *logging.Logger
	tracer trace.Tracer
	loc    *time.Location
	now    func() time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLogger overrides the logger used to report progress.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the calendar used for streak days and time-of-day rules.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService constructs a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: logging.NewNop(),
		tracer: observability.Tracer(),
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = achievements.NewEngine(store, achievements.WithClock(s.now))
	return s
}

// CheckAchievements evaluates the achievement catalog and, for cardio efforts, the personal record
// tracker for the user named in input.
func (s *Service) CheckAchievements(ctx context.Context, input TriggerInput) (result CheckResult, err error) {
	if strings.TrimSpace(input.UserID) == "" {
		return CheckResult{}, apperr.NewValidation("user_id", "is required")
	}
	var trigger *sport.Type
	if input.SportType != "" {
		t, err := sport.Parse(input.SportType)
		if err != nil {
			return CheckResult{}, err
		}
		trigger = &t
	}

	ctx, span := s.tracer.Start(ctx, "progress.CheckAchievements", trace.WithAttributes(
		attribute.String("user.id", input.UserID),
		attribute.String("activity.id", input.ActivityID),
	))
	start := time.Now()
	defer func() {
		endSpan(span, err)
		observability.ObserveOperation("check_achievements", start)
	}()

	activities, err := s.store.ListActivities(ctx, input.UserID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("list activities: %w", err)
	}
	social, err := s.store.SocialCounts(ctx, input.UserID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("social counts: %w", err)
	}

	now := s.now()
	activities, triggered := s.withTrigger(activities, input, trigger, now)

	snap := achievements.NewSnapshot(activities, social, now, s.loc)
	awarded, err := s.engine.Evaluate(ctx, input.UserID, input.ActivityID, snap)
	if err != nil {
		return CheckResult{}, err
	}
	for _, a := range awarded {
		observability.RecordAchievementAwarded(a.AchievementType)
	}

	var updates []records.Update
	if triggered != nil {
		updates, err = s.updateRecords(ctx, *triggered)
		if err != nil {
			return CheckResult{}, err
		}
	}

	observability.RecordEvaluation(now)
	span.SetAttributes(
		attribute.Int("achievements.new", len(awarded)),
		attribute.Int("records.new", len(updates)),
	)
	if len(awarded) > 0 || len(updates) > 0 {
		s.logger.Info("progress updated",
			"user_id", input.UserID,
			"activity_id", input.ActivityID,
			"achievements", len(awarded),
			"personal_records", len(updates),
		)
	}

	if awarded == nil {
		awarded = []EarnedAchievement{}
	}
	if updates == nil {
		updates = []records.Update{}
	}
	return CheckResult{
		NewAchievements:    awarded,
		NewPersonalRecords: updates,
		AchievementsCount:  len(awarded),
		PRsCount:           len(updates),
	}, nil
}

// withTrigger merges the trigger's metrics into the history. It returns the activity the trigger
// refers to, or nil when there is none. An activity not yet in the store is only appended when the
// trigger names it; without an ID the stored history already holds it and the metrics feed records only.
func (s *Service) withTrigger(activities []Activity, input TriggerInput, trigger *sport.Type, now time.Time) ([]Activity, *Activity) {
	if input.ActivityID != "" {
		for i := range activities {
			if activities[i].ID != input.ActivityID {
				continue
			}
			a := activities[i]
			if input.DistanceMeters != nil {
				a.DistanceMeters = input.DistanceMeters
			}
			if input.DurationSeconds != nil {
				a.DurationSeconds = input.DurationSeconds
			}
			activities[i] = a
			return activities, &a
		}
	}
	if trigger == nil {
		return activities, nil
	}

	a := history.Activity{
		ID:              input.ActivityID,
		UserID:          input.UserID,
		SportType:       *trigger,
		StartTime:       now,
		DistanceMeters:  input.DistanceMeters,
		DurationSeconds: input.DurationSeconds,
	}
	if input.StartTime != nil {
		a.StartTime = *input.StartTime
	}
	if input.ActivityID == "" {
		return activities, &a
	}
	return append(activities, a), &a
}

func (s *Service) updateRecords(ctx context.Context, a Activity) ([]records.Update, error) {
	effort := records.Effort{
		UserID:          a.UserID,
		ActivityID:      a.ID,
		SportType:       a.SportType,
		DistanceMeters:  a.Distance(),
		DurationSeconds: a.Duration(),
		AchievedAt:      a.StartTime.UTC(),
	}
	if !effort.Qualifies() {
		return nil, nil
	}

	existing, err := s.store.ListPersonalRecords(ctx, a.UserID)
	if err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}

	candidates := records.Evaluate(effort, records.NewBook(existing))
	updates := make([]records.Update, 0, len(candidates))
	for _, c := range candidates {
		if err := s.store.UpsertPersonalRecord(ctx, c.Record); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				continue
			}
			return updates, fmt.Errorf("upsert personal record %s: %w", c.Record.RecordType, err)
		}
		observability.RecordPersonalRecord(string(c.Record.RecordType), string(c.Record.SportType))
		updates = append(updates, c.Update)
	}
	return updates, nil
}

// Streaks computes the user's streak statistics as of now.
func (s *Service) Streaks(ctx context.Context, userID string) (stats streak.Stats, err error) {
	ctx, span := s.tracer.Start(ctx, "progress.Streaks", trace.WithAttributes(attribute.String("user.id", userID)))
	defer func() { endSpan(span, err) }()

	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return streak.Stats{}, fmt.Errorf("list activities: %w", err)
	}
	return streak.Calculate(history.StartTimes(activities, s.loc), s.now().In(s.loc)), nil
}

// Summary aggregates the user's activity over period. Unknown periods fail before any store access.
func (s *Service) Summary(ctx context.Context, userID, period string) (report summary.Report, err error) {
	if _, err := summary.ParsePeriod(period); err != nil {
		return summary.Report{}, err
	}

	ctx, span := s.tracer.Start(ctx, "progress.Summary", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("summary.period", period),
	))
	defer func() { endSpan(span, err) }()

	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return summary.Report{}, fmt.Errorf("list activities: %w", err)
	}
	return summary.Build(activities, period, s.now(), s.loc)
}

// AchievementProgress lists the whole catalog with each entry's earned state.
func (s *Service) AchievementProgress(ctx context.Context, userID string) ([]achievements.Status, error) {
	return s.engine.Progress(ctx, userID)
}

// PersonalRecords returns the user's records ordered by record type then sport.
func (s *Service) PersonalRecords(ctx context.Context, userID string) ([]PersonalRecord, error) {
	existing, err := s.store.ListPersonalRecords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list personal records: %w", err)
	}
	return records.NewBook(existing).Records(), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

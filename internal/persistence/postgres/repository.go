// Package postgres stores activity history, achievements and personal records in Postgres. Every
// award and record change writes an outbox row in the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/domain"
	"example.com/fitprogress/internal/outbox"
	"example.com/fitprogress/internal/records"
	"example.com/fitprogress/internal/sport"
	"example.com/fitprogress/pkg/events"
)

const uniqueViolation = "23505"

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides Postgres-backed persistence for the progress service.
type Repository struct {
	db DB
	sb sq.StatementBuilderType
}

var _ domain.Store = (*Repository)(nil)

// NewRepository constructs a Repository.
func NewRepository(db DB) *Repository {
	return &Repository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListActivities returns the user's activities ordered by start time.
func (r *Repository) ListActivities(ctx context.Context, userID string) ([]domain.Activity, error) {
	query, args, err := r.sb.
		Select("activity_id", "user_id", "sport_type", "start_time", "duration_seconds", "distance_meters", "sport_data").
		From("activities").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("start_time ASC", "activity_id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0)
	for rows.Next() {
		var (
			a         domain.Activity
			sportType string
			data      []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &sportType, &a.StartTime, &a.DurationSeconds, &a.DistanceMeters, &data); err != nil {
			return nil, err
		}
		a.SportType = sport.Type(sportType)
		a.SportData = json.RawMessage(data)
		out = append(out, a)
	}
	return out, rows.Err()
}

// SocialCounts returns how many users the user follows and how many photos they attached.
func (r *Repository) SocialCounts(ctx context.Context, userID string) (domain.SocialCounts, error) {
	query, args, err := r.sb.Select().
		Column(sq.Expr("(SELECT COUNT(*) FROM user_follows WHERE follower_id = ?)", userID)).
		Column(sq.Expr("(SELECT COUNT(*) FROM activity_photos WHERE user_id = ?)", userID)).
		ToSql()
	if err != nil {
		return domain.SocialCounts{}, err
	}

	var following, photos int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&following, &photos); err != nil {
		return domain.SocialCounts{}, err
	}
	return domain.SocialCounts{FollowingCount: int(following), PhotoCount: int(photos)}, nil
}

// ListAchievements returns the user's awards, oldest first.
func (r *Repository) ListAchievements(ctx context.Context, userID string) ([]domain.EarnedAchievement, error) {
	query, args, err := r.sb.
		Select("id", "user_id", "achievement_type", "achievement_name", "achievement_description", "metadata", "activity_id", "achieved_at").
		From("user_achievements").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("achieved_at ASC", "achievement_type ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.EarnedAchievement, 0)
	for rows.Next() {
		var (
			a        domain.EarnedAchievement
			metadata []byte
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.AchievementType, &a.AchievementName, &a.AchievementDescription, &metadata, &a.ActivityID, &a.AchievedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of achievement %s: %w", a.ID, err)
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertAchievement stores the award unless the user already holds it. The award event is written
// to the outbox only when a row was inserted.
func (r *Repository) InsertAchievement(ctx context.Context, a domain.EarnedAchievement) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return false, err
	}

	query, args, err := r.sb.Insert("user_achievements").
		Columns("id", "user_id", "achievement_type", "achievement_name", "achievement_description", "metadata", "activity_id", "achieved_at").
		Values(a.ID, a.UserID, a.AchievementType, a.AchievementName, a.AchievementDescription, metadata, a.ActivityID, a.AchievedAt).
		Suffix("ON CONFLICT (user_id, achievement_type) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return false, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	payload := events.AchievementAwarded{
		AchievementID:   a.ID,
		UserID:          a.UserID,
		AchievementType: a.AchievementType,
		Name:            a.AchievementName,
		AchievedAt:      a.AchievedAt,
	}
	if a.ActivityID != nil {
		payload.ActivityID = *a.ActivityID
	}
	if err := r.insertOutbox(ctx, tx, outbox.EventAchievementAwarded, a.ID, a.UserID, a.ID, payload); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ListPersonalRecords returns the user's records ordered by record type then sport.
func (r *Repository) ListPersonalRecords(ctx context.Context, userID string) ([]domain.PersonalRecord, error) {
	query, args, err := r.sb.
		Select("id", "user_id", "record_type", "sport_type", "distance_meters", "duration_seconds", "pace_seconds_per_km",
			"activity_id", "achieved_at", "previous_record_seconds", "previous_distance_meters").
		From("personal_records").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PersonalRecord, 0)
	for rows.Next() {
		var (
			rec                   domain.PersonalRecord
			recordType, sportType string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &recordType, &sportType, &rec.DistanceMeters, &rec.DurationSeconds, &rec.PaceSecondsPerKm,
			&rec.ActivityID, &rec.AchievedAt, &rec.PreviousRecordSeconds, &rec.PreviousDistanceMeters); err != nil {
			return nil, err
		}
		rec.RecordType = records.Type(recordType)
		rec.SportType = sport.Type(sportType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records.NewBook(out).Records(), nil
}

// upsertGuard keeps a concurrent writer from replacing a record with a worse value.
const upsertGuard = `ON CONFLICT (user_id, record_type, sport_type) DO UPDATE SET
    distance_meters = EXCLUDED.distance_meters,
    duration_seconds = EXCLUDED.duration_seconds,
    pace_seconds_per_km = EXCLUDED.pace_seconds_per_km,
    activity_id = EXCLUDED.activity_id,
    achieved_at = EXCLUDED.achieved_at,
    previous_record_seconds = EXCLUDED.previous_record_seconds,
    previous_distance_meters = EXCLUDED.previous_distance_meters,
    updated_at = NOW()
  WHERE CASE EXCLUDED.record_type
    WHEN 'longest_run' THEN EXCLUDED.distance_meters > personal_records.distance_meters
    WHEN 'fastest_pace' THEN EXCLUDED.pace_seconds_per_km < personal_records.pace_seconds_per_km
    ELSE EXCLUDED.duration_seconds < personal_records.duration_seconds
  END
RETURNING id`

// UpsertPersonalRecord writes the record into its (user, record type, sport) slot. It returns an
// error matching apperr.ErrConflict when the stored record is already at least as good.
func (r *Repository) UpsertPersonalRecord(ctx context.Context, rec domain.PersonalRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query, args, err := r.sb.Insert("personal_records").
		Columns("id", "user_id", "record_type", "sport_type", "distance_meters", "duration_seconds", "pace_seconds_per_km",
			"activity_id", "achieved_at", "previous_record_seconds", "previous_distance_meters").
		Values(rec.ID, rec.UserID, string(rec.RecordType), string(rec.SportType), rec.DistanceMeters, rec.DurationSeconds, rec.PaceSecondsPerKm,
			rec.ActivityID, rec.AchievedAt, rec.PreviousRecordSeconds, rec.PreviousDistanceMeters).
		Suffix(upsertGuard).
		ToSql()
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id string
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s record for %s not improved: %w", rec.RecordType, rec.SportType, apperr.ErrConflict)
		}
		return mapError(err)
	}

	payload := events.PersonalRecordUpdated{
		RecordID:               id,
		UserID:                 rec.UserID,
		RecordType:             string(rec.RecordType),
		SportType:              string(rec.SportType),
		DistanceMeters:         rec.DistanceMeters,
		DurationSeconds:        rec.DurationSeconds,
		PaceSecondsPerKm:       rec.PaceSecondsPerKm,
		ActivityID:             rec.ActivityID,
		AchievedAt:             rec.AchievedAt,
		PreviousRecordSeconds:  rec.PreviousRecordSeconds,
		PreviousDistanceMeters: rec.PreviousDistanceMeters,
	}
	dedupe := fmt.Sprintf("%s:%s", id, rec.ActivityID)
	if err := r.insertOutbox(ctx, tx, outbox.EventPersonalRecordUpdated, id, rec.UserID, dedupe, payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, eventType, aggregateID, userID, dedupe string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	query, args, err := r.sb.Insert("outbox").
		Columns("aggregate_type", "aggregate_id", "event_type", "topic", "schema_subject", "partition_key", "payload", "dedupe_key").
		Values(meta.AggregateType, aggregateID, eventType, meta.Topic, meta.SchemaSubject, userID, body, fmt.Sprintf("%s:%s", eventType, dedupe)).
		Suffix("ON CONFLICT (dedupe_key) DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, query, args...)
	return err
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, apperr.ErrConflict)
	}
	return err
}

// EventMetadata describes how to route an outbox event. Events are keyed by user so a user's
// awards and records stay ordered on one partition.
type EventMetadata struct {
	AggregateType string
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	outbox.EventAchievementAwarded: {
		AggregateType: "achievement",
		Topic:         "achievement_events",
		SchemaSubject: "achievement_events-value",
	},
	outbox.EventPersonalRecordUpdated: {
		AggregateType: "personal_record",
		Topic:         "personal_record_events",
		SchemaSubject: "personal_record_events-value",
	},
}

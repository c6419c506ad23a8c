package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/domain"
	"example.com/fitprogress/internal/logging"
	"example.com/fitprogress/pkg/events"
)

// EventActivityCreated is the event type emitted by the activity service for new workouts.
const EventActivityCreated = "activity.created"

// ProgressService is the part of domain.Service the handler drives.
type ProgressService interface {
	PrepareActivity(input domain.PrepareInput) (domain.PreparedActivity, error)
	CheckAchievements(ctx context.Context, input domain.TriggerInput) (domain.CheckResult, error)
}

// ProgressHandler evaluates achievements and personal records for every created activity.
//
// Events that can never succeed (bad JSON, unknown sport, invalid payload) are logged and
// acknowledged. Store failures are returned so the message stays uncommitted.
type ProgressHandler struct {
	service ProgressService
	logger  *logging.Logger
}

// NewProgressHandler constructs a ProgressHandler.
func NewProgressHandler(service ProgressService, logger *logging.Logger) *ProgressHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProgressHandler{service: service, logger: logger}
}

// Handle implements Handler.
func (h *ProgressHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != EventActivityCreated {
		recordSkipped("event_type")
		return nil
	}

	var evt events.ActivityCreated
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		h.logger.Warn("discarding undecodable activity event", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		recordSkipped("payload")
		return nil
	}
	if strings.TrimSpace(evt.UserID) == "" {
		h.logger.Warn("discarding activity event without user", "activity_id", evt.ActivityID)
		recordSkipped("payload")
		return nil
	}

	prepared, err := h.service.PrepareActivity(domain.PrepareInput{
		SportType:       evt.SportType,
		SportData:       evt.SportData,
		Route:           evt.Route,
		DistanceMeters:  evt.DistanceMeters,
		DurationSeconds: evt.DurationSeconds,
	})
	if err != nil {
		return h.settle(evt, err)
	}

	input := domain.TriggerInput{
		UserID:          evt.UserID,
		ActivityID:      evt.ActivityID,
		SportType:       string(prepared.SportType),
		DistanceMeters:  prepared.DistanceMeters,
		DurationSeconds: prepared.DurationSeconds,
	}
	if !evt.StartTime.IsZero() {
		start := evt.StartTime
		input.StartTime = &start
	}

	result, err := h.service.CheckAchievements(ctx, input)
	if err != nil {
		return h.settle(evt, err)
	}

	h.logger.Debug("activity evaluated",
		"activity_id", evt.ActivityID,
		"user_id", evt.UserID,
		"achievements", result.AchievementsCount,
		"personal_records", result.PRsCount,
	)
	return nil
}

// settle acknowledges validation failures and returns everything else for redelivery.
func (h *ProgressHandler) settle(evt events.ActivityCreated, err error) error {
	if errors.Is(err, apperr.ErrValidation) {
		h.logger.Warn("activity rejected", "activity_id", evt.ActivityID, "sport_type", evt.SportType, "error", err)
		recordSkipped("validation")
		return nil
	}
	return err
}

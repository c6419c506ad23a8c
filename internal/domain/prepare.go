package domain

import (
	"encoding/json"
	"errors"

	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/geo"
	"example.com/fitprogress/internal/observability"
	"example.com/fitprogress/internal/sport"
)

// PrepareInput is an activity as received at ingestion, before persistence.
type PrepareInput struct {
	SportType       string          `json:"sport_type"`
	SportData       json.RawMessage `json:"sport_data,omitempty"`
	Route           json.RawMessage `json:"route,omitempty"` // raw device track, millisecond timestamps
	DistanceMeters  *float64        `json:"distance_meters,omitempty"`
	DurationSeconds *float64        `json:"duration_seconds,omitempty"`
}

// PreparedActivity carries the validated payload and the figures derived from it.
type PreparedActivity struct {
	SportType        sport.Type  `json:"sport_type"`
	DistanceMeters   *float64    `json:"distance_meters,omitempty"`
	DurationSeconds  *float64    `json:"duration_seconds,omitempty"`
	PaceSecondsPerKm float64     `json:"pace_seconds_per_km"`
	Pace             string      `json:"pace"`
	Splits           []geo.Split `json:"splits"`
	ElevationGain    float64     `json:"elevation_gain"`
	Summary          string      `json:"summary,omitempty"`
}

// PrepareActivity validates the sport payload and derives distance, duration, pace and splits from the
// route when the caller did not supply them. Caller-supplied distance and duration always win.
func (s *Service) PrepareActivity(input PrepareInput) (PreparedActivity, error) {
	prepared, err := prepare(input)
	if err != nil && errors.Is(err, apperr.ErrValidation) {
		label := input.SportType
		if _, parseErr := sport.Parse(label); parseErr != nil {
			label = "unknown"
		}
		observability.RecordValidationFailure(label)
		s.logger.Warn("activity payload rejected", "sport_type", input.SportType, "error", err)
	}
	return prepared, err
}

func prepare(input PrepareInput) (PreparedActivity, error) {
	if err := nonNegative("distance_meters", input.DistanceMeters); err != nil {
		return PreparedActivity{}, err
	}
	if err := nonNegative("duration_seconds", input.DurationSeconds); err != nil {
		return PreparedActivity{}, err
	}
	if err := sport.Validate(input.SportType, input.SportData); err != nil {
		return PreparedActivity{}, err
	}

	t := sport.Type(input.SportType)
	out := PreparedActivity{
		SportType:       t,
		DistanceMeters:  input.DistanceMeters,
		DurationSeconds: input.DurationSeconds,
		Splits:          []geo.Split{},
	}

	switch {
	case t.IsCardio():
		route, err := routeFor(input)
		if err != nil {
			return PreparedActivity{}, err
		}
		if len(route) >= 2 {
			if out.DistanceMeters == nil {
				d := geo.TotalDistance(route)
				out.DistanceMeters = &d
			}
			if out.DurationSeconds == nil {
				d := geo.ElapsedSeconds(route)
				out.DurationSeconds = &d
			}
			out.Splits = geo.CalculateSplits(route, geo.DefaultSplitDistance)
			out.ElevationGain = geo.ElevationGain(route)
		}
	case t == sport.Weightlifting:
		w, err := sport.ParseWeightlifting(input.SportData)
		if err != nil {
			return PreparedActivity{}, err
		}
		out.Summary = w.Summary()
	case t == sport.Yoga:
		y, err := sport.ParseYoga(input.SportData)
		if err != nil {
			return PreparedActivity{}, err
		}
		out.Summary = y.Summary()
	}

	if out.DistanceMeters != nil && out.DurationSeconds != nil && *out.DistanceMeters > 0 {
		out.PaceSecondsPerKm = *out.DurationSeconds / *out.DistanceMeters * 1000
	}
	out.Pace = geo.FormatPace(out.PaceSecondsPerKm)
	return out, nil
}

// routeFor prefers the raw device track and falls back to the route inside the sport payload.
func routeFor(input PrepareInput) ([]geo.GpsPoint, error) {
	if len(input.Route) > 0 && string(input.Route) != "null" {
		return geo.ParseRoute(input.Route)
	}
	payload, err := sport.ParseGPS(input.SportData)
	if err != nil {
		return nil, err
	}
	return payload.Points(), nil
}

func nonNegative(field string, v *float64) error {
	if v != nil && *v < 0 {
		return apperr.NewValidation(field, "must not be negative")
	}
	return nil
}

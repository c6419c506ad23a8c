package geo

import (
	"encoding/json"
	"math"

	"example.com/fitprogress/internal/apperr"
)

// ValidateRoute checks an arbitrary decoded JSON value (as produced by encoding/json into any)
// for route shape. The first violation is returned; an empty sequence is valid.
func ValidateRoute(candidate any) error {
	points, ok := candidate.([]any)
	if !ok {
		return apperr.NewValidation("route", "must be an array")
	}

	for i, item := range points {
		obj, ok := item.(map[string]any)
		if !ok {
			return apperr.NewIndexedValidation(i, "", "point must be an object")
		}
		lat, ok := number(obj["lat"])
		if !ok || lat < -90 || lat > 90 {
			return apperr.NewIndexedValidation(i, "lat", "must be a number between -90 and 90")
		}
		lng, ok := number(obj["lng"])
		if !ok || lng < -180 || lng > 180 {
			return apperr.NewIndexedValidation(i, "lng", "must be a number between -180 and 180")
		}
		ts, ok := number(obj["timestamp"])
		if !ok || ts < 0 {
			return apperr.NewIndexedValidation(i, "timestamp", "must be a non-negative number")
		}
	}
	return nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ParseRoute validates raw JSON as a route and decodes it.
func ParseRoute(raw json.RawMessage) ([]GpsPoint, error) {
	var candidate any
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return nil, apperr.NewValidation("route", "is not valid JSON")
	}
	if err := ValidateRoute(candidate); err != nil {
		return nil, err
	}

	var route []GpsPoint
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, apperr.NewValidation("route", err.Error())
	}
	return route, nil
}

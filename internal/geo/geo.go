// Package geo computes distances, pace and splits over recorded GPS routes.
//
// Every function is pure: routes differ per call, so nothing is cached.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by HaversineDistance.
const EarthRadiusMeters = 6371000.0

// DefaultSplitDistance is the split length used when callers have no preference.
const DefaultSplitDistance = 1000.0

// UnknownPace is returned by FormatPace when the pace cannot be computed.
const UnknownPace = "--:--"

// GpsPoint is a single route sample. Timestamp is in milliseconds.
type GpsPoint struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Timestamp float64  `json:"timestamp"`
	Elevation *float64 `json:"elevation,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Split summarises a contiguous slice of a route.
type Split struct {
	DistanceMeters   float64 `json:"distance_meters"`
	DurationSeconds  float64 `json:"duration_seconds"`
	PaceSecondsPerKm float64 `json:"pace_seconds_per_km"`
	StartIndex       int     `json:"start_index"`
	EndIndex         int     `json:"end_index"`
}

// HaversineDistance returns the great-circle distance in meters between two coordinates.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	deltaLat := toRadians(lat2 - lat1)
	deltaLng := toRadians(lng2 - lng1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	// Rounding can push a marginally above 1 for antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// TotalDistance sums the distance between consecutive points.
func TotalDistance(route []GpsPoint) float64 {
	if len(route) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(route); i++ {
		total += segment(route[i-1], route[i])
	}
	return total
}

// CumulativeDistances returns the running distance at every point, starting at 0.
func CumulativeDistances(route []GpsPoint) []float64 {
	out := make([]float64, len(route))
	for i := 1; i < len(route); i++ {
		out[i] = out[i-1] + segment(route[i-1], route[i])
	}
	return out
}

func segment(a, b GpsPoint) float64 {
	return HaversineDistance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// AveragePace returns seconds per kilometre over the whole route, or 0 when unknown.
func AveragePace(route []GpsPoint) float64 {
	if len(route) < 2 {
		return 0
	}
	distance := TotalDistance(route)
	if distance == 0 {
		return 0
	}
	seconds := (route[len(route)-1].Timestamp - route[0].Timestamp) / 1000
	return seconds / (distance / 1000)
}

// ElapsedSeconds returns the time between the first and last sample.
func ElapsedSeconds(route []GpsPoint) float64 {
	if len(route) < 2 {
		return 0
	}
	return (route[len(route)-1].Timestamp - route[0].Timestamp) / 1000
}

// ElevationGain sums the positive elevation changes between samples that both carry elevation.
func ElevationGain(route []GpsPoint) float64 {
	var gain float64
	for i := 1; i < len(route); i++ {
		prev, cur := route[i-1].Elevation, route[i].Elevation
		if prev == nil || cur == nil {
			continue
		}
		if d := *cur - *prev; d > 0 {
			gain += d
		}
	}
	return gain
}

// CalculateSplits cuts the route every splitDistance meters of cumulative distance.
//
// A split closes on the first sample at or past the next boundary, so its distance is the real
// interval since the previous boundary sample. Points left after the last boundary form one final
// partial split. A non-positive splitDistance falls back to DefaultSplitDistance.
func CalculateSplits(route []GpsPoint, splitDistance float64) []Split {
	if len(route) < 2 {
		return []Split{}
	}
	if splitDistance <= 0 || math.IsNaN(splitDistance) || math.IsInf(splitDistance, 0) {
		splitDistance = DefaultSplitDistance
	}

	cumulative := CumulativeDistances(route)
	splits := make([]Split, 0, int(cumulative[len(cumulative)-1]/splitDistance)+1)

	startIdx := 0
	threshold := splitDistance
	for i := 1; i < len(route); i++ {
		if cumulative[i] < threshold {
			continue
		}
		splits = append(splits, newSplit(route, cumulative, startIdx, i))
		startIdx = i
		for threshold <= cumulative[i] {
			threshold += splitDistance
		}
	}

	if startIdx < len(route)-1 {
		splits = append(splits, newSplit(route, cumulative, startIdx, len(route)-1))
	}
	return splits
}

func newSplit(route []GpsPoint, cumulative []float64, start, end int) Split {
	distance := cumulative[end] - cumulative[start]
	duration := (route[end].Timestamp - route[start].Timestamp) / 1000
	var pace float64
	if distance > 0 {
		pace = duration / (distance / 1000)
	}
	return Split{
		DistanceMeters:   distance,
		DurationSeconds:  duration,
		PaceSecondsPerKm: pace,
		StartIndex:       start,
		EndIndex:         end,
	}
}

// FormatPace renders seconds per kilometre as M:SS.
func FormatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 || math.IsNaN(secondsPerKm) || math.IsInf(secondsPerKm, 0) {
		return UnknownPace
	}
	total := int(math.Round(secondsPerKm))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

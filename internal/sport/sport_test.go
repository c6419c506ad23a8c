package sport

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/fitprogress/internal/apperr"
)

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.ErrorIs(t, err, apperr.ErrValidation)
	var verr *apperr.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, field, verr.Field)
}

func TestValidateUnknownSport(t *testing.T) {
	err := Validate("curling", json.RawMessage(`{}`))
	requireFieldError(t, err, "sport_type")
}

func TestValidateWeightlifting(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{name: "valid", raw: `{"exercises":[{"name":"Bench","sets":[{"weight":80,"reps":8},{"weight":85,"reps":6,"rest_seconds":90}]}]}`},
		{name: "missing exercises", raw: `{}`, field: "exercises"},
		{name: "empty exercises", raw: `{"exercises":[]}`, field: "exercises"},
		{name: "blank name", raw: `{"exercises":[{"name":"  ","sets":[{"weight":80,"reps":8}]}]}`, field: "exercises[0].name"},
		{name: "empty sets", raw: `{"exercises":[{"name":"Squat","sets":[]}]}`, field: "exercises[0].sets"},
		{name: "zero weight", raw: `{"exercises":[{"name":"Squat","sets":[{"weight":0,"reps":8}]}]}`, field: "exercises[0].sets[0].weight"},
		{name: "fractional reps", raw: `{"exercises":[{"name":"Squat","sets":[{"weight":100,"reps":5},{"weight":80,"reps":8.5}]}]}`, field: "exercises[0].sets[1].reps"},
		{name: "negative rest", raw: `{"exercises":[{"name":"Squat","sets":[{"weight":80,"reps":8,"rest_seconds":-1}]}]}`, field: "exercises[0].sets[0].rest_seconds"},
		{name: "not an object", raw: `[1,2]`, field: "sport_data"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate("weightlifting", json.RawMessage(tc.raw))
			if tc.field == "" {
				require.NoError(t, err)
				return
			}
			requireFieldError(t, err, tc.field)
		})
	}
}

func TestValidateYoga(t *testing.T) {
	require.NoError(t, Validate("yoga", nil))
	require.NoError(t, Validate("yoga", json.RawMessage(`null`)))
	require.NoError(t, Validate("yoga", json.RawMessage(`{"flow_type":"yin","difficulty":"beginner","poses":["Child's pose"],"target_duration_minutes":30}`)))

	requireFieldError(t, Validate("yoga", json.RawMessage(`{"flow_type":"power"}`)), "flow_type")
	requireFieldError(t, Validate("yoga", json.RawMessage(`{"difficulty":"expert"}`)), "difficulty")
	requireFieldError(t, Validate("yoga", json.RawMessage(`{"poses":["Tree",""]}`)), "poses[1]")
	requireFieldError(t, Validate("yoga", json.RawMessage(`{"target_duration_minutes":0}`)), "target_duration_minutes")
	requireFieldError(t, Validate("yoga", json.RawMessage(`{"actual_duration_minutes":-3}`)), "actual_duration_minutes")
}

func TestValidateGPS(t *testing.T) {
	valid := `{
		"route":[{"lat":51.5,"lng":-0.12,"timestamp":"2024-03-01T07:00:00Z","elevation":12},
		         {"lat":51.501,"lng":-0.12,"timestamp":"2024-03-01T07:00:30.5Z"}],
		"pace":{"average":"5:30","best":"4:55"},
		"splits":[{"distance":1000,"time":"5:30","pace":"5:30"}],
		"elevation":{"gain":20,"loss":18,"max":40,"min":10}
	}`
	for _, s := range []string{"running", "walking", "biking"} {
		require.NoError(t, Validate(s, json.RawMessage(valid)))
	}
	require.NoError(t, Validate("running", json.RawMessage(`{}`)))

	requireFieldError(t, Validate("running", json.RawMessage(`{"route":[{"lat":95,"lng":0,"timestamp":"2024-03-01T07:00:00Z"}]}`)), "route[0].lat")
	requireFieldError(t, Validate("running", json.RawMessage(`{"route":[{"lat":0,"lng":0,"timestamp":"yesterday"}]}`)), "route[0].timestamp")
	requireFieldError(t, Validate("running", json.RawMessage(`{"splits":[{"distance":0,"time":"1:00","pace":"1:00"}]}`)), "splits[0].distance")
	requireFieldError(t, Validate("running", json.RawMessage(`{"splits":[{"distance":1000,"pace":"1:00"}]}`)), "splits[0].time")
	requireFieldError(t, Validate("running", json.RawMessage(`{"elevation":{"gain":-1,"loss":0}}`)), "elevation.gain")
	requireFieldError(t, Validate("running", json.RawMessage(`{"pace":{"average":null}}`)), "pace[average]")

	err := Validate("running", json.RawMessage(`{"pace":{"average":330}}`))
	require.ErrorIs(t, err, apperr.ErrValidation)
	err = Validate("running", json.RawMessage(`{"route":[{"lat":"north","lng":0,"timestamp":"2024-03-01T07:00:00Z"}]}`))
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestValidateOpenPayloads(t *testing.T) {
	require.NoError(t, Validate("swimming", json.RawMessage(`{"laps":20,"stroke":"freestyle"}`)))
	require.NoError(t, Validate("hit", json.RawMessage(`{}`)))
	requireFieldError(t, Validate("swimming", json.RawMessage(`"laps"`)), "sport_data")
	requireFieldError(t, Validate("hit", json.RawMessage(`{not json`)), "sport_data")
}

func TestGPSPoints(t *testing.T) {
	p, err := ParseGPS(json.RawMessage(`{"route":[
		{"lat":0,"lng":0,"timestamp":"2024-03-01T07:00:00Z"},
		{"lat":0,"lng":0.01,"timestamp":"2024-03-01T07:05:00Z"}]}`))
	require.NoError(t, err)

	points := p.Points()
	require.Len(t, points, 2)
	require.Equal(t, 300000.0, points[1].Timestamp-points[0].Timestamp)
}

func TestIsCardio(t *testing.T) {
	for _, s := range Types() {
		want := s == Running || s == Walking || s == Biking
		require.Equal(t, want, s.IsCardio(), s)
	}
}

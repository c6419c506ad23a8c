// Package sport validates the sport-specific payload attached to an activity and derives the
// human-facing figures (volume, summaries, duration accuracy) from it.
package sport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"example.com/fitprogress/internal/apperr"
)

// Type names a supported sport.
type Type string

const (
	Running       Type = "running"
	Walking       Type = "walking"
	Biking        Type = "biking"
	Weightlifting Type = "weightlifting"
	Swimming      Type = "swimming"
	Yoga          Type = "yoga"
	HIIT          Type = "hit"
)

// Types lists every supported sport in a stable order.
func Types() []Type {
	return []Type{Running, Walking, Biking, Weightlifting, Swimming, Yoga, HIIT}
}

// Parse converts s into a Type, rejecting unknown sports.
func Parse(s string) (Type, error) {
	t := Type(s)
	if _, ok := validators[t]; !ok {
		return "", apperr.NewValidation("sport_type", fmt.Sprintf("must be one of %v", Types()))
	}
	return t, nil
}

// IsCardio reports whether the sport records distance over a route.
func (t Type) IsCardio() bool {
	return t == Running || t == Walking || t == Biking
}

func (t Type) String() string { return string(t) }

type validatorFunc func(raw json.RawMessage) error

var validators = map[Type]validatorFunc{
	Running:       validateGPS,
	Walking:       validateGPS,
	Biking:        validateGPS,
	Weightlifting: validateWeightlifting,
	Yoga:          validateYoga,
	Swimming:      validateObject,
	HIIT:          validateObject,
}

// Validate checks raw against the payload shape of sportType. An empty or null payload is treated as
// an empty object.
func Validate(sportType string, raw json.RawMessage) error {
	t, err := Parse(sportType)
	if err != nil {
		return err
	}
	return validators[t](normalize(raw))
}

func normalize(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage("{}")
	}
	return trimmed
}

func validateObject(raw json.RawMessage) error {
	var obj map[string]json.RawMessage
	return decode(raw, &obj)
}

func validateGPS(raw json.RawMessage) error {
	_, err := ParseGPS(raw)
	return err
}

func validateWeightlifting(raw json.RawMessage) error {
	_, err := ParseWeightlifting(raw)
	return err
}

func validateYoga(raw json.RawMessage) error {
	_, err := ParseYoga(raw)
	return err
}

// decode unmarshals raw into dst and maps decoding failures to validation errors.
func decode(raw json.RawMessage, dst any) error {
	err := json.Unmarshal(normalize(raw), dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "sport_data"
		}
		return apperr.NewValidation(field, fmt.Sprintf("must be %s, got %s", jsonKind(typeErr.Type), typeErr.Value))
	}
	return apperr.NewValidation("sport_data", "is not valid JSON")
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Bool:
		return "a boolean"
	}
	return "an object"
}

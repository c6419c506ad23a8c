package sport

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"example.com/fitprogress/internal/apperr"
	"example.com/fitprogress/internal/geo"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "integer", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Float32, reflect.Float64:
			n := f.Float()
			return !math.IsInf(n, 0) && n == math.Trunc(n)
		case reflect.Int, reflect.Int32, reflect.Int64:
			return true
		}
		return false
	})
	mustRegister(v, "rfc3339", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// GPS is the payload of running, walking and biking activities.
type GPS struct {
	Route     []RoutePoint       `json:"route,omitempty" validate:"omitempty,dive"`
	Pace      map[string]*string `json:"pace,omitempty" validate:"omitempty,dive,required"`
	Splits    []RecordedSplit    `json:"splits,omitempty" validate:"omitempty,dive"`
	Elevation *ElevationStats    `json:"elevation,omitempty" validate:"omitempty"`
}

// RoutePoint is a recorded coordinate with an RFC 3339 timestamp.
type RoutePoint struct {
	Lat       *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng       *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Timestamp string   `json:"timestamp" validate:"required,rfc3339"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// RecordedSplit is a split as reported by the recording device.
type RecordedSplit struct {
	Distance *float64 `json:"distance" validate:"required,gt=0"`
	Time     *string  `json:"time" validate:"required"`
	Pace     *string  `json:"pace" validate:"required"`
}

// ElevationStats summarises the elevation profile reported with a route.
type ElevationStats struct {
	Gain *float64 `json:"gain" validate:"required,gte=0"`
	Loss *float64 `json:"loss" validate:"required,gte=0"`
	Max  *float64 `json:"max,omitempty"`
	Min  *float64 `json:"min,omitempty"`
}

// Points converts the route into geo samples with millisecond timestamps.
func (g GPS) Points() []geo.GpsPoint {
	out := make([]geo.GpsPoint, 0, len(g.Route))
	for _, p := range g.Route {
		ts, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil || p.Lat == nil || p.Lng == nil {
			continue
		}
		out = append(out, geo.GpsPoint{
			Lat:       *p.Lat,
			Lng:       *p.Lng,
			Timestamp: float64(ts.UnixMilli()),
			Elevation: p.Elevation,
		})
	}
	return out
}

// LiftingWorkout is the payload of weightlifting activities.
type LiftingWorkout struct {
	Exercises []Exercise `json:"exercises" validate:"required,min=1,dive"`
}

// Exercise groups the sets performed for one movement.
type Exercise struct {
	Name string    `json:"name" validate:"nonblank"`
	Sets []LiftSet `json:"sets" validate:"required,min=1,dive"`
}

// LiftSet is a single set. Reps is decoded as a number so fractional values can be rejected.
type LiftSet struct {
	Weight      float64  `json:"weight" validate:"gt=0"`
	Reps        float64  `json:"reps" validate:"gt=0,integer"`
	RestSeconds *float64 `json:"rest_seconds,omitempty" validate:"omitempty,gte=0"`
}

// YogaSession is the payload of yoga activities. Every field is optional.
type YogaSession struct {
	FlowType              string   `json:"flow_type,omitempty" validate:"omitempty,oneof=vinyasa hatha yin restorative ashtanga bikram other"`
	Difficulty            string   `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Poses                 []string `json:"poses,omitempty" validate:"omitempty,dive,nonblank"`
	TargetDurationMinutes *float64 `json:"target_duration_minutes,omitempty" validate:"omitempty,gt=0"`
	ActualDurationMinutes *float64 `json:"actual_duration_minutes,omitempty" validate:"omitempty,gt=0"`
	Notes                 string   `json:"notes,omitempty"`
}

// ParseGPS decodes and validates a GPS payload.
func ParseGPS(raw json.RawMessage) (GPS, error) {
	var p GPS
	if err := decodeAndValidate(raw, &p); err != nil {
		return GPS{}, err
	}
	return p, nil
}

// ParseWeightlifting decodes and validates a weightlifting payload.
func ParseWeightlifting(raw json.RawMessage) (LiftingWorkout, error) {
	var p LiftingWorkout
	if err := decodeAndValidate(raw, &p); err != nil {
		return LiftingWorkout{}, err
	}
	return p, nil
}

// ParseYoga decodes and validates a yoga payload.
func ParseYoga(raw json.RawMessage) (YogaSession, error) {
	var p YogaSession
	if err := decodeAndValidate(raw, &p); err != nil {
		return YogaSession{}, err
	}
	return p, nil
}

func decodeAndValidate(raw json.RawMessage, dst any) error {
	if err := decode(raw, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.NewValidation("sport_data", err.Error())
	}
	fe := fieldErrs[0]

	// Namespace starts with the Go type name of the payload.
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	return apperr.NewValidation(path, message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must not be empty"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nonblank":
		return "must not be blank"
	case "integer":
		return "must be a whole number"
	case "rfc3339":
		return "must be an RFC 3339 timestamp"
	}
	return "is invalid"
}

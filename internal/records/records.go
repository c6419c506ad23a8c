// Package records tracks best-so-far performances per user, record type and sport.
//
// Evaluation is a pure reducer: given an effort and the current book of records it returns the
// replacements the effort earns. Persisting them is left to the caller.
package records

import (
	"math"
	"time"

	"example.com/fitprogress/internal/sport"
)

// Type names a personal record.
type Type string

const (
	OneK         Type = "1k"
	FiveK        Type = "5k"
	TenK         Type = "10k"
	HalfMarathon Type = "half_marathon"
	Marathon     Type = "marathon"
	LongestRun   Type = "longest_run"
	FastestPace  Type = "fastest_pace"
)

// FastestPaceMinDistance is the shortest effort considered for the fastest_pace record.
const FastestPaceMinDistance = 1000.0

// StandardDistance is a race distance estimated from longer efforts by pace extrapolation.
type StandardDistance struct {
	Type   Type
	Meters float64
}

var standardDistances = []StandardDistance{
	{Type: OneK, Meters: 1000},
	{Type: FiveK, Meters: 5000},
	{Type: TenK, Meters: 10000},
	{Type: HalfMarathon, Meters: 21097},
	{Type: Marathon, Meters: 42195},
}

// StandardDistances returns the race distances in ascending order.
func StandardDistances() []StandardDistance {
	out := make([]StandardDistance, len(standardDistances))
	copy(out, standardDistances)
	return out
}

// Types lists every record type.
func Types() []Type {
	out := make([]Type, 0, len(standardDistances)+2)
	for _, d := range standardDistances {
		out = append(out, d.Type)
	}
	return append(out, LongestRun, FastestPace)
}

// Record is the stored best value for one (user, record type, sport) key.
//
// PreviousRecordSeconds holds the replaced duration, or the replaced pace for fastest_pace.
// PreviousDistanceMeters holds the replaced distance for longest_run.
type Record struct {
	ID                     string     `json:"id,omitempty"`
	UserID                 string     `json:"user_id"`
	RecordType             Type       `json:"record_type"`
	SportType              sport.Type `json:"sport_type"`
	DistanceMeters         float64    `json:"distance_meters"`
	DurationSeconds        float64    `json:"duration_seconds"`
	PaceSecondsPerKm       float64    `json:"pace_seconds_per_km"`
	ActivityID             string     `json:"activity_id"`
	AchievedAt             time.Time  `json:"achieved_at"`
	PreviousRecordSeconds  *float64   `json:"previous_record_seconds,omitempty"`
	PreviousDistanceMeters *float64   `json:"previous_distance_meters,omitempty"`
}

// Key identifies the slot a record occupies.
type Key struct {
	RecordType Type
	SportType  sport.Type
}

// Key returns the slot of r.
func (r Record) Key() Key {
	return Key{RecordType: r.RecordType, SportType: r.SportType}
}

// Effort is a completed activity as seen by the tracker.
type Effort struct {
	UserID          string
	ActivityID      string
	SportType       sport.Type
	DistanceMeters  float64
	DurationSeconds float64
	AchievedAt      time.Time
}

// Qualifies reports whether the effort can set records at all.
func (e Effort) Qualifies() bool {
	return e.SportType.IsCardio() && e.DistanceMeters > 0 && e.DurationSeconds > 0
}

// Pace returns seconds per kilometre.
func (e Effort) Pace() float64 {
	return e.DurationSeconds / e.DistanceMeters * 1000
}

// Update is the caller-facing report of a replaced record. OldTime carries the previous value in the
// unit of the record: seconds for race distances, meters for longest_run, seconds per km for
// fastest_pace.
type Update struct {
	RecordType Type       `json:"record_type"`
	SportType  sport.Type `json:"sport_type"`
	NewTime    float64    `json:"new_time"`
	OldTime    *float64   `json:"old_time,omitempty"`
	IsNew      bool       `json:"is_new"`
}

// Candidate pairs the record to store with its report.
type Candidate struct {
	Record Record
	Update Update
}

// Book indexes a user's current records by slot.
type Book map[Key]Record

// NewBook indexes rs. Later duplicates of a slot win.
func NewBook(rs []Record) Book {
	b := make(Book, len(rs))
	for _, r := range rs {
		b[r.Key()] = r
	}
	return b
}

// Apply stores every candidate record in the book.
func (b Book) Apply(candidates []Candidate) {
	for _, c := range candidates {
		b[c.Record.Key()] = c.Record
	}
}

// Records returns the book contents ordered by record type then sport.
func (b Book) Records() []Record {
	out := make([]Record, 0, len(b))
	for _, t := range Types() {
		for _, s := range sport.Types() {
			if r, ok := b[Key{RecordType: t, SportType: s}]; ok {
				out = append(out, r)
			}
		}
	}
	return out
}

// Evaluate returns the records the effort improves on. Ties never replace a record.
func Evaluate(effort Effort, book Book) []Candidate {
	if !effort.Qualifies() {
		return nil
	}

	pace := effort.Pace()
	var out []Candidate

	for _, sd := range standardDistances {
		if effort.DistanceMeters < sd.Meters {
			break
		}
		estimate := math.Round(sd.Meters / effort.DistanceMeters * effort.DurationSeconds)
		prev, ok := book[Key{RecordType: sd.Type, SportType: effort.SportType}]
		if ok && estimate >= prev.DurationSeconds {
			continue
		}

		rec := newRecord(effort, sd.Type, sd.Meters, estimate, pace)
		update := Update{RecordType: sd.Type, SportType: effort.SportType, NewTime: estimate, IsNew: !ok}
		if ok {
			rec.PreviousRecordSeconds = ptr(prev.DurationSeconds)
			update.OldTime = ptr(prev.DurationSeconds)
		}
		out = append(out, Candidate{Record: rec, Update: update})
	}

	if prev, ok := book[Key{RecordType: LongestRun, SportType: effort.SportType}]; !ok || effort.DistanceMeters > prev.DistanceMeters {
		rec := newRecord(effort, LongestRun, effort.DistanceMeters, effort.DurationSeconds, pace)
		update := Update{RecordType: LongestRun, SportType: effort.SportType, NewTime: effort.DistanceMeters, IsNew: !ok}
		if ok {
			previous := math.Round(prev.DistanceMeters)
			rec.PreviousDistanceMeters = ptr(previous)
			update.OldTime = ptr(previous)
		}
		out = append(out, Candidate{Record: rec, Update: update})
	}

	if effort.DistanceMeters >= FastestPaceMinDistance {
		prev, ok := book[Key{RecordType: FastestPace, SportType: effort.SportType}]
		if !ok || pace < prev.PaceSecondsPerKm {
			rec := newRecord(effort, FastestPace, effort.DistanceMeters, effort.DurationSeconds, pace)
			update := Update{RecordType: FastestPace, SportType: effort.SportType, NewTime: pace, IsNew: !ok}
			if ok {
				rec.PreviousRecordSeconds = ptr(prev.PaceSecondsPerKm)
				update.OldTime = ptr(prev.PaceSecondsPerKm)
			}
			out = append(out, Candidate{Record: rec, Update: update})
		}
	}

	return out
}

func newRecord(e Effort, t Type, distance, duration, pace float64) Record {
	return Record{
		UserID:           e.UserID,
		RecordType:       t,
		SportType:        e.SportType,
		DistanceMeters:   distance,
		DurationSeconds:  duration,
		PaceSecondsPerKm: pace,
		ActivityID:       e.ActivityID,
		AchievedAt:       e.AchievedAt,
	}
}

func ptr(v float64) *float64 { return &v }

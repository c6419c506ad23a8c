package achievements

import "example.com/fitprogress/internal/sport"

// Definition is an immutable catalog entry. The rule behind it stays private to the package.
type Definition struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	rule        func(Snapshot) bool
}

// NewDefinition builds a catalog entry for use with WithCatalog.
func NewDefinition(achievementType, name, description string, rule func(Snapshot) bool) Definition {
	return Definition{Type: achievementType, Name: name, Description: description, rule: rule}
}

// Satisfied reports whether the snapshot meets the definition's rule.
func (d Definition) Satisfied(s Snapshot) bool {
	return d.rule(s)
}

func firstOf(t sport.Type) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.SportCounts[t] > 0 }
}

func singleCardio(meters float64) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.LongestCardioMeters >= meters }
}

func cumulativeCardio(meters float64) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.CardioDistanceMeters >= meters }
}

func streakOf(days int) func(Snapshot) bool {
	// The longest streak counts so a milestone reached earlier is still awarded after it breaks.
	return func(s Snapshot) bool { return s.Streak.LongestStreak >= days }
}

func activityCount(n int) func(Snapshot) bool {
	return func(s Snapshot) bool { return s.TotalActivities >= n }
}

// catalog is evaluated in order. New rules are appended.
var catalog = []Definition{
	{Type: "first_activity", Name: "First Steps", Description: "Log your first activity", rule: activityCount(1)},

	{Type: "first_run", Name: "Off and Running", Description: "Log your first run", rule: firstOf(sport.Running)},
	{Type: "first_walk", Name: "Out for a Stroll", Description: "Log your first walk", rule: firstOf(sport.Walking)},
	{Type: "first_ride", Name: "Saddle Up", Description: "Log your first bike ride", rule: firstOf(sport.Biking)},
	{Type: "first_swim", Name: "Making a Splash", Description: "Log your first swim", rule: firstOf(sport.Swimming)},
	{Type: "first_lift", Name: "Iron Initiate", Description: "Log your first weightlifting session", rule: firstOf(sport.Weightlifting)},
	{Type: "first_yoga", Name: "Namaste", Description: "Log your first yoga session", rule: firstOf(sport.Yoga)},
	{Type: "first_hiit", Name: "Interval Initiate", Description: "Log your first HIIT workout", rule: firstOf(sport.HIIT)},

	{Type: "first_5k", Name: "5K Finisher", Description: "Complete 5 km in a single run, walk or ride", rule: singleCardio(5000)},
	{Type: "first_10k", Name: "10K Finisher", Description: "Complete 10 km in a single run, walk or ride", rule: singleCardio(10000)},
	{Type: "first_half_marathon", Name: "Half Marathoner", Description: "Complete a half marathon distance in a single activity", rule: singleCardio(21097)},
	{Type: "first_marathon", Name: "Marathoner", Description: "Complete a marathon distance in a single activity", rule: singleCardio(42195)},

	{Type: "distance_50k", Name: "50K Club", Description: "Cover 50 km across all runs, walks and rides", rule: cumulativeCardio(50000)},
	{Type: "distance_100k", Name: "Century", Description: "Cover 100 km across all runs, walks and rides", rule: cumulativeCardio(100000)},
	{Type: "distance_500k", Name: "Long Hauler", Description: "Cover 500 km across all runs, walks and rides", rule: cumulativeCardio(500000)},

	{Type: "streak_7", Name: "Week Warrior", Description: "Be active 7 days in a row", rule: streakOf(7)},
	{Type: "streak_30", Name: "Unstoppable", Description: "Be active 30 days in a row", rule: streakOf(30)},

	{Type: "early_bird", Name: "Early Bird", Description: "Start an activity before 7 AM", rule: func(s Snapshot) bool { return s.EarlyBird }},
	{Type: "night_owl", Name: "Night Owl", Description: "Start an activity at or after 9 PM", rule: func(s Snapshot) bool { return s.NightOwl }},

	{Type: "activities_5", Name: "Getting Started", Description: "Log 5 activities", rule: activityCount(5)},
	{Type: "activities_10", Name: "Regular", Description: "Log 10 activities", rule: activityCount(10)},
	{Type: "activities_50", Name: "Dedicated", Description: "Log 50 activities", rule: activityCount(50)},

	{Type: "first_photo", Name: "Picture Perfect", Description: "Attach a photo to an activity", rule: func(s Snapshot) bool { return s.PhotoCount > 0 }},
	{Type: "social_butterfly", Name: "Social Butterfly", Description: "Follow 5 other athletes", rule: func(s Snapshot) bool { return s.FollowingCount >= 5 }},
}

// Catalog returns the definitions in evaluation order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition registered for achievementType.
func Lookup(achievementType string) (Definition, bool) {
	for _, d := range catalog {
		if d.Type == achievementType {
			return d, true
		}
	}
	return Definition{}, false
}

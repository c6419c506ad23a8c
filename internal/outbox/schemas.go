package outbox

// Event types written to the outbox table.
const (
	EventAchievementAwarded    = "achievement.awarded"
	EventPersonalRecordUpdated = "personal_record.updated"
)

const achievementAwardedSchema = `{
  "type": "object",
  "title": "AchievementAwarded",
  "properties": {
    "achievement_id": {"type": "string"},
    "user_id": {"type": "string"},
    "achievement_type": {"type": "string"},
    "name": {"type": "string"},
    "activity_id": {"type": "string"},
    "achieved_at": {"type": "string", "format": "date-time"}
  },
  "required": ["achievement_id", "user_id", "achievement_type", "name", "achieved_at"],
  "additionalProperties": false
}`

const personalRecordUpdatedSchema = `{
  "type": "object",
  "title": "PersonalRecordUpdated",
  "properties": {
    "record_id": {"type": "string"},
    "user_id": {"type": "string"},
    "record_type": {"type": "string", "enum": ["1k", "5k", "10k", "half_marathon", "marathon", "longest_run", "fastest_pace"]},
    "sport_type": {"type": "string"},
    "distance_meters": {"type": "number"},
    "duration_seconds": {"type": "number"},
    "pace_seconds_per_km": {"type": "number"},
    "activity_id": {"type": "string"},
    "achieved_at": {"type": "string", "format": "date-time"},
    "previous_record_seconds": {"type": "number"},
    "previous_distance_meters": {"type": "number"}
  },
  "required": ["record_id", "user_id", "record_type", "sport_type", "distance_meters", "duration_seconds", "pace_seconds_per_km", "activity_id", "achieved_at"],
  "additionalProperties": false
}`

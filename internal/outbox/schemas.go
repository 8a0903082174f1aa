package outbox

import "example.com/wellbeing/pkg/events"

const scoreUpdatedSchema = `{
  "type": "object",
  "title": "WellbeingScoreUpdated",
  "properties": {
    "event_id": {"type": "string"},
    "user_id": {"type": "string"},
    "sleep": {"type": "number", "minimum": 0, "maximum": 100},
    "physical_activity": {"type": "number", "minimum": 0, "maximum": 100},
    "social_interaction": {"type": "number", "minimum": 0, "maximum": 100},
    "overall": {"type": "number", "minimum": 0, "maximum": 100},
    "updated_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "user_id", "sleep", "physical_activity", "social_interaction", "overall", "updated_at"],
  "additionalProperties": false
}`

const dailyScoredSchema = `{
  "type": "object",
  "title": "DailyScoreRecorded",
  "properties": {
    "event_id": {"type": "string"},
    "user_id": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "sleep": {"type": "number", "minimum": 0, "maximum": 100},
    "physical_activity": {"type": "number", "minimum": 0, "maximum": 100},
    "social_interaction": {"type": "number", "minimum": 0, "maximum": 100},
    "recorded_at": {"type": "string", "format": "date-time"}
  },
  "required": ["event_id", "user_id", "date", "sleep", "physical_activity", "social_interaction", "recorded_at"],
  "additionalProperties": false
}`

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeScoreUpdated: {Schema: scoreUpdatedSchema},
	events.TypeDailyScored:  {Schema: dailyScoredSchema},
}

// internal/workers/matchmaking/match-team-to-users/models.go
package matchteamtousers

import "matchmaking-workers/internal/matching"

// eventId is optional: without it the team's own event scopes the candidates.
const inputSchema = `{
	"type": "object",
	"required": ["teamId"],
	"properties": {
		"teamId":    {"type": "string", "minLength": 1},
		"eventId":   {"type": ["string", "null"]},
		"threshold": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
		"limit":     {"type": ["integer", "null"], "minimum": 1, "maximum": 100},
		"skipCache": {"type": ["boolean", "null"]}
	}
}`

type Input struct {
	TeamID    string   `json:"teamId"`
	EventID   string   `json:"eventId,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	SkipCache bool     `json:"skipCache,omitempty"`
}

type Output struct {
	MatchRequestID string                 `json:"matchRequestId"`
	Matches        []matching.MatchResult `json:"userMatches"`
	MatchCount     int                    `json:"matchCount"`
	TopUserID      string                 `json:"topUserId,omitempty"`
	TopScore       float64                `json:"topScore"`
	Cached         bool                   `json:"matchCached"`
}

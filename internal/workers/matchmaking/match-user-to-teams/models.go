// internal/workers/matchmaking/match-user-to-teams/models.go
package matchusertoteams

import "matchmaking-workers/internal/matching"

const inputSchema = `{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId":    {"type": "string", "minLength": 1},
		"eventId":   {"type": ["string", "null"]},
		"threshold": {"type": ["number", "null"], "minimum": 0, "maximum": 1},
		"limit":     {"type": ["integer", "null"], "minimum": 1, "maximum": 100},
		"skipCache": {"type": ["boolean", "null"]}
	}
}`

type Input struct {
	UserID    string   `json:"userId"`
	EventID   string   `json:"eventId,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	SkipCache bool     `json:"skipCache,omitempty"`
}

type Output struct {
	MatchRequestID string                 `json:"matchRequestId"`
	Matches        []matching.MatchResult `json:"teamMatches"`
	MatchCount     int                    `json:"matchCount"`
	TopTeamID      string                 `json:"topTeamId,omitempty"`
	TopScore       float64                `json:"topScore"`
	Cached         bool                   `json:"matchCached"`
}

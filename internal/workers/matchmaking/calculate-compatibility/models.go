// internal/workers/matchmaking/calculate-compatibility/models.go
package calculatecompatibility

import "matchmaking-workers/internal/matching"

const inputSchema = `{
	"type": "object",
	"required": ["userId", "teamId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"teamId": {"type": "string", "minLength": 1}
	}
}`

type Input struct {
	UserID string `json:"userId"`
	TeamID string `json:"teamId"`
}

type Output struct {
	CompatibilityScore float64            `json:"compatibilityScore"`
	MatchReasons       []string           `json:"matchReasons"`
	ScoreBreakdown     matching.SubScores `json:"scoreBreakdown"`
	// MeetsThreshold tells the process whether the pair clears the configured match threshold.
	MeetsThreshold bool `json:"meetsThreshold"`
}

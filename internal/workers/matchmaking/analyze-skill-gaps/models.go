// internal/workers/matchmaking/analyze-skill-gaps/models.go
package analyzeskillgaps

// Skills may come inline or be resolved from stored profiles: currentSkills from the
// user (or the team's tech stack), requiredSkills from the team's open roles.
const inputSchema = `{
	"type": "object",
	"properties": {
		"userId":         {"type": ["string", "null"]},
		"teamId":         {"type": ["string", "null"]},
		"currentSkills":  {"type": ["array", "null"], "items": {"type": "string"}},
		"requiredSkills": {"type": ["array", "null"], "items": {"type": "string"}}
	},
	"anyOf": [
		{"required": ["requiredSkills"]},
		{"required": ["teamId"]}
	]
}`

type Input struct {
	UserID         string   `json:"userId,omitempty"`
	TeamID         string   `json:"teamId,omitempty"`
	CurrentSkills  []string `json:"currentSkills,omitempty"`
	RequiredSkills []string `json:"requiredSkills,omitempty"`
}

type Output struct {
	MissingSkills   []string          `json:"missingSkills"`
	CoveredSkills   []string          `json:"coveredSkills"`
	CoveragePercent float64           `json:"coveragePercent"`
	SkillHeatmap    map[string]string `json:"skillHeatmap"`
	SkillStatus     string            `json:"skillStatus"`
}

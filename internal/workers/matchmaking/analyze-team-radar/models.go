// internal/workers/matchmaking/analyze-team-radar/models.go
package analyzeteamradar

const inputSchema = `{
	"type": "object",
	"required": ["messages"],
	"properties": {
		"teamId":   {"type": ["string", "null"]},
		"messages": {"type": ["array", "null"], "items": {"type": "string"}}
	}
}`

type Input struct {
	TeamID   string   `json:"teamId,omitempty"`
	Messages []string `json:"messages"`
}

type Output struct {
	TeamID           string   `json:"teamId,omitempty"`
	StruggleScore    float64  `json:"struggleScore"`
	KeywordCount     int      `json:"keywordCount"`
	DetectedKeywords []string `json:"detectedKeywords"`
	TeamStatus       string   `json:"teamStatus"`
	Recommendation   string   `json:"recommendation,omitempty"`
	NeedsMentor      bool     `json:"needsMentor"`
}

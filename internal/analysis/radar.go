package analysis

import (
	"math"
	"sort"
	"strings"
)

const (
	RadarInactive     = "inactive"
	RadarHealthy      = "healthy"
	RadarMildStruggle = "mild_struggle"
	RadarNeedsMentor  = "needs_mentor"
)

var struggleKeywords = []string{
	"stuck", "error", "fail", "broken", "help", "blocked", "issue", "bug", "can't",
	"confused", "lost", "hard", "difficult", "problem", "missed", "deadline", "urgent",
}

var radarRecommendations = map[string]string{
	RadarNeedsMentor:  "Consider requesting mentor guidance for technical issues.",
	RadarMildStruggle: "Keep an eye on progress.",
	RadarHealthy:      "Team is progressing well.",
}

type RadarRequest struct {
	Messages []string `json:"messages"`
}

type RadarReport struct {
	StruggleScore    float64  `json:"struggle_score"`
	KeywordCount     int      `json:"keyword_count"`
	DetectedKeywords []string `json:"detected_keywords"`
	Status           string   `json:"status"`
	Recommendation   string   `json:"recommendation,omitempty"`
}

// AnalyzeTeamStatus flags teams whose chat suggests they are stuck. A message counts once
// however many struggle keywords it contains; keywords match as substrings.
func AnalyzeTeamStatus(messages []string) RadarReport {
	if len(messages) == 0 {
		return RadarReport{Status: RadarInactive, DetectedKeywords: []string{}}
	}

	struggling := 0
	found := make(map[string]struct{})
	for _, msg := range messages {
		lower := strings.ToLower(msg)
		hit := false
		for _, kw := range struggleKeywords {
			if strings.Contains(lower, kw) {
				found[kw] = struct{}{}
				hit = true
			}
		}
		if hit {
			struggling++
		}
	}

	ratio := float64(struggling) / float64(len(messages))
	status := RadarHealthy
	switch {
	case ratio > 0.3 || struggling > 5:
		status = RadarNeedsMentor
	case ratio > 0.1:
		status = RadarMildStruggle
	}

	keywords := make([]string, 0, len(found))
	for kw := range found {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	return RadarReport{
		StruggleScore:    math.Round(ratio*100) / 100,
		KeywordCount:     struggling,
		DetectedKeywords: keywords,
		Status:           status,
		Recommendation:   radarRecommendations[status],
	}
}

// Package analysis holds the team-health reports served next to matching: skill-gap
// coverage for a team and the mentor radar over team chat.
package analysis

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

const (
	HeatGreen = "green"
	HeatRed   = "red"

	StatusStrong           = "strong"
	StatusNeedsImprovement = "needs_improvement"
	StatusCritical         = "critical"
)

type SkillGapRequest struct {
	CurrentSkills  []string `json:"current_skills"`
	RequiredSkills []string `json:"required_skills"`
}

type SkillGapReport struct {
	MissingSkills   []string          `json:"missing_skills"`
	CoveredSkills   []string          `json:"covered_skills"`
	CoveragePercent float64           `json:"coverage_percent"`
	Heatmap         map[string]string `json:"heatmap"`
	Status          string            `json:"status"`
}

// AnalyzeSkillGaps compares what a team has against what it needs. Matching is case-insensitive;
// missing and covered skills are reported folded, in required order, while the heatmap keeps the
// spelling the caller used. Nothing required counts as full coverage.
func AnalyzeSkillGaps(current, required []string) SkillGapReport {
	have := make(map[string]struct{}, len(current))
	for _, s := range current {
		if f := foldSkill(s); f != "" {
			have[f] = struct{}{}
		}
	}

	report := SkillGapReport{
		MissingSkills: []string{},
		CoveredSkills: []string{},
		Heatmap:       make(map[string]string, len(required)),
	}

	seen := make(map[string]struct{}, len(required))
	for _, s := range required {
		f := foldSkill(s)
		if f == "" {
			continue
		}
		_, ok := have[f]
		if ok {
			report.Heatmap[strings.TrimSpace(s)] = HeatGreen
		} else {
			report.Heatmap[strings.TrimSpace(s)] = HeatRed
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if ok {
			report.CoveredSkills = append(report.CoveredSkills, f)
		} else {
			report.MissingSkills = append(report.MissingSkills, f)
		}
	}

	coverage := 100.0
	if len(seen) > 0 {
		coverage = float64(len(report.CoveredSkills)) / float64(len(seen)) * 100
	}
	report.CoveragePercent = math.Round(coverage*10) / 10
	report.Status = coverageStatus(coverage)
	return report
}

func coverageStatus(coverage float64) string {
	switch {
	case coverage >= 80:
		return StatusStrong
	case coverage >= 50:
		return StatusNeedsImprovement
	default:
		return StatusCritical
	}
}

func foldSkill(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// internal/matching/explain.go
package matching

import (
	"fmt"
	"strings"
)

const maxExampleSkills = 3

// Explain derives the reasons shown next to a match. Each rule adds at most one reason and
// rules always run in the same order, so identical inputs give identical reasons.
// The list may be empty.
func Explain(user User, team Team, skillScore, experienceScore, interestScore float64) []string {
	reasons := make([]string, 0, 6)

	if shared := intersect(user.Skills, team.AllRequiredSkills()); len(shared) > 0 {
		examples := shared
		if len(examples) > maxExampleSkills {
			examples = examples[:maxExampleSkills]
		}
		noun := "skills"
		if len(shared) == 1 {
			noun = "skill"
		}
		reasons = append(reasons, fmt.Sprintf("%d matching %s: %s", len(shared), noun, strings.Join(examples, ", ")))
	}

	switch {
	case skillScore > 0.8:
		reasons = append(reasons, "Strong skill alignment with team needs")
	case skillScore > 0.6:
		reasons = append(reasons, "Good skill match for this team")
	}

	switch {
	case experienceScore > 0.9:
		reasons = append(reasons, "Perfect experience fit")
	case experienceScore > 0.7:
		reasons = append(reasons, "Experience level aligns well")
	}

	if interestScore > 0.7 {
		reasons = append(reasons, "Shared interests in project domain")
	}

	if role := matchingRole(user.PreferredRole, team.OpenRoles); role != "" {
		reasons = append(reasons, fmt.Sprintf("Good fit for the open %s role", role))
	}

	switch spots := team.SpotsLeft(); {
	case spots == 1:
		reasons = append(reasons, "Last spot available!")
	case spots > 1 && spots <= 3:
		reasons = append(reasons, fmt.Sprintf("Only %d spots left", spots))
	}

	return reasons
}

func matchingRole(preferred string, roles []OpenRole) string {
	want := fold(preferred)
	if want == "" {
		return ""
	}
	for _, role := range roles {
		if strings.Contains(fold(role.Title), want) {
			return role.Title
		}
	}
	return ""
}

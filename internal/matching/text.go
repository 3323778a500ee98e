// internal/matching/text.go
package matching

import "strings"

// BuildUserText flattens a user profile into the blob fed to the similarity engine.
// Skills appear twice so they weigh double; empty fields contribute nothing.
func BuildUserText(u User) string {
	var parts []string

	if skills := joinNonEmpty(u.Skills); skills != "" {
		parts = append(parts, skills, skills)
	}
	if interests := joinNonEmpty(u.Interests); interests != "" {
		parts = append(parts, interests)
	}
	if bio := strings.TrimSpace(u.Bio); bio != "" {
		parts = append(parts, bio)
	}
	if level := strings.TrimSpace(string(u.ExperienceLevel)); level != "" {
		parts = append(parts, level)
	}

	return strings.Join(parts, " ")
}

// BuildTeamText flattens what a team is looking for: per open role its skills (twice) and
// description, then project idea, tech stack and domains.
func BuildTeamText(t Team) string {
	var parts []string

	roleSkills := false
	for _, role := range t.OpenRoles {
		if skills := joinNonEmpty(role.RequiredSkills); skills != "" {
			parts = append(parts, skills, skills)
			roleSkills = true
		}
		if desc := strings.TrimSpace(role.Description); desc != "" {
			parts = append(parts, desc)
		}
	}
	// teams loaded without role rows still carry their flattened skill list
	if !roleSkills {
		if skills := joinNonEmpty(t.RequiredSkills); skills != "" {
			parts = append(parts, skills, skills)
		}
	}

	if idea := strings.TrimSpace(t.ProjectIdea); idea != "" {
		parts = append(parts, idea)
	}
	if stack := joinNonEmpty(t.TechStack); stack != "" {
		parts = append(parts, stack)
	}
	if domains := joinNonEmpty(t.Domains); domains != "" {
		parts = append(parts, domains)
	}

	return strings.Join(parts, " ")
}

func joinNonEmpty(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, " ")
}

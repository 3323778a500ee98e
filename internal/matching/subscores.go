// internal/matching/subscores.go
package matching

const neutralInterestScore = 0.5

// ExperienceFit scores the distance between two levels with a fixed table:
// same level 1.0, one apart 0.8, two apart 0.5, three apart 0.3.
func ExperienceFit(a, b ExperienceLevel) float64 {
	diff := a.Rank() - b.Rank()
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.5
	default:
		return 0.3
	}
}

// InterestOverlap is the Jaccard similarity of the folded interest and domain sets.
// Missing data on either side is neutral (0.5), distinct from no overlap (0.0).
func InterestOverlap(interests, domains []string) float64 {
	a, b := FoldSet(interests), FoldSet(domains)
	if len(a) == 0 || len(b) == 0 {
		return neutralInterestScore
	}
	inter := len(intersect(a, b))
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// AvailabilityPolicy maps team capacity to the availability sub-score in [0,1].
type AvailabilityPolicy func(t Team) float64

const (
	PolicyOpenSpot     = "open_spot"
	PolicyProportional = "proportional"
)

// OpenSpotAvailability gives full availability while at least one spot is open.
func OpenSpotAvailability(t Team) float64 {
	if t.SpotsLeft() > 0 {
		return 1.0
	}
	return 0.0
}

// ProportionalAvailability is the share of the team that is still open.
func ProportionalAvailability(t Team) float64 {
	if t.MaxMembers <= 0 {
		return 0.0
	}
	return clamp01(float64(t.SpotsLeft()) / float64(t.MaxMembers))
}

// AvailabilityPolicyByName resolves a configured policy name; unknown names get the default.
func AvailabilityPolicyByName(name string) AvailabilityPolicy {
	if name == PolicyProportional {
		return ProportionalAvailability
	}
	return OpenSpotAvailability
}

package domain

// Badge tiers as a step function of a user's cumulative review count.
// Counts 2..4 intentionally earn nothing: only the very first review grants
// the entry tier.
const (
	BadgeTop         = "Top"
	BadgeExpert      = "Expert"
	BadgeContributor = "Contributor"
	BadgeExperienced = "Experienced reviewer"
	BadgeReviewer    = "Reviewer"
)

// BadgeFor returns the badge earned at the given review count, or "" when
// none applies.
func BadgeFor(reviews int) string {
	switch {
	case reviews >= 50:
		return BadgeTop
	case reviews >= 20:
		return BadgeExpert
	case reviews >= 10:
		return BadgeContributor
	case reviews >= 5:
		return BadgeExperienced
	case reviews == 1:
		return BadgeReviewer
	default:
		return ""
	}
}

package points

import "strings"

// DefaultEligibleTags is the built-in allowlist of completion tags that award
// points, used when no allowlist is configured.
var DefaultEligibleTags = []string{
	"completed-foundations",
	"completed-classroom-tech",
	"completed-digital-citizenship",
	"completed-data-literacy",
	"completed-advanced-pedagogy",
}

const (
	// AccountTypeStudent is excluded from webhook awards: course-completion
	// credit is an educator-program benefit.
	AccountTypeStudent  = "student"
	AccountTypeEducator = "educator"
)

// Reviewer roles allowed to run the submission review engine.
const (
	RoleMember   = "member"
	RoleReviewer = "reviewer"
	RoleAdmin    = "admin"
)

// NormalizeTag produces the canonical form used by every uniqueness key.
func NormalizeTag(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Eligibility holds the award-eligibility policy. Construct it once from
// config; both checks are side-effect-free.
type Eligibility struct {
	tags         map[string]struct{}
	excludedType string
}

func NewEligibility(eligibleTags []string, excludedAccountType string) Eligibility {
	if len(eligibleTags) == 0 {
		eligibleTags = DefaultEligibleTags
	}
	tags := make(map[string]struct{}, len(eligibleTags))
	for _, tag := range eligibleTags {
		normalized := NormalizeTag(tag)
		if normalized == "" {
			continue
		}
		tags[normalized] = struct{}{}
	}

	excluded := strings.ToLower(strings.TrimSpace(excludedAccountType))
	if excluded == "" {
		excluded = AccountTypeStudent
	}

	return Eligibility{
		tags:         tags,
		excludedType: excluded,
	}
}

// TagEligible reports whether a normalized tag is on the allowlist.
func (e Eligibility) TagEligible(normalizedTag string) bool {
	_, ok := e.tags[normalizedTag]
	return ok
}

// AccountEligible reports whether the account type may receive awards.
func (e Eligibility) AccountEligible(accountType string) bool {
	return strings.ToLower(strings.TrimSpace(accountType)) != e.excludedType
}

func ValidReviewerRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RoleReviewer, RoleAdmin:
		return true
	default:
		return false
	}
}

package labeling

import "strings"

type Role string

const (
	RoleAnnotator Role = "annotator"
	RoleReviewer  Role = "reviewer"
	RoleAdmin     Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAnnotator:
		return RoleAnnotator, true
	case RoleReviewer:
		return RoleReviewer, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Reviews reports whether the role works the review queue. Admins behave as reviewers.
func (r Role) Reviews() bool {
	return r == RoleReviewer || r == RoleAdmin
}

func (r Role) String() string { return string(r) }

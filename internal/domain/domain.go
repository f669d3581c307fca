package domain

import "github.com/yungbote/labelbridge-backend/internal/domain/labeling"

type (
	Role             = labeling.Role
	Confidence       = labeling.Confidence
	AnnotationRecord = labeling.AnnotationRecord
	NavigationState  = labeling.NavigationState
	SessionState     = labeling.SessionState
	SessionStateRow  = labeling.SessionStateRow
)

const (
	RoleAnnotator = labeling.RoleAnnotator
	RoleReviewer  = labeling.RoleReviewer
	RoleAdmin     = labeling.RoleAdmin

	ConfidenceHigh   = labeling.ConfidenceHigh
	ConfidenceMedium = labeling.ConfidenceMedium
	ConfidenceLow    = labeling.ConfidenceLow
)

// Models lists every table owned by the service, in migration order.
func Models() []any {
	return []any{
		&labeling.AnnotationRecord{},
		&labeling.SessionStateRow{},
	}
}

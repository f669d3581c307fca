package labeling

import (
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
)

// AnnotationStore is the append-only annotation table.
// A record must be visible to reads in the same process once Append returns.
type AnnotationStore interface {
	Append(dbc dbctx.Context, rec *domlabel.AnnotationRecord) error
	// QueryAll returns every record, newest first by (date, time, id).
	QueryAll(dbc dbctx.Context) ([]domlabel.AnnotationRecord, error)
	QueryLatestForItem(dbc dbctx.Context, itemID string) (*domlabel.AnnotationRecord, error)
	QueryLatestForItemBy(dbc dbctx.Context, itemID string, username string) (*domlabel.AnnotationRecord, error)
	QueryLatestForItemByRole(dbc dbctx.Context, itemID string, role domlabel.Role) (*domlabel.AnnotationRecord, error)
}

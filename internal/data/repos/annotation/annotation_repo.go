package annotation

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/labelbridge-backend/internal/pkg/errors"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type AnnotationRepo interface {
	labeling.AnnotationStore
	Count(dbc dbctx.Context) (int64, error)
}

type annotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
	repoLog := baseLog.With("repo", "AnnotationRepo")
	return &annotationRepo{db: db, log: repoLog}
}

const newestFirst = "date DESC, time DESC, id DESC"

func (r *annotationRepo) Append(dbc dbctx.Context, rec *domlabel.AnnotationRecord) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if rec == nil {
		return fmt.Errorf("append annotation: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := t.WithContext(dbc.Ctx).Create(rec).Error; err != nil {
		r.log.Error("Annotation insert failed", "call_id", rec.CallID, "username", rec.Username, "error", err)
		return fmt.Errorf("%w: insert annotation: %v", pkgerrors.ErrStorage, err)
	}
	return nil
}

func (r *annotationRepo) QueryAll(dbc dbctx.Context) ([]domlabel.AnnotationRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []domlabel.AnnotationRecord
	if err := t.WithContext(dbc.Ctx).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: query annotations: %v", pkgerrors.ErrStorage, err)
	}
	return rows, nil
}

func (r *annotationRepo) QueryLatestForItem(dbc dbctx.Context, itemID string) (*domlabel.AnnotationRecord, error) {
	return r.latest(dbc, map[string]any{"call_id": itemID})
}

func (r *annotationRepo) QueryLatestForItemBy(dbc dbctx.Context, itemID string, username string) (*domlabel.AnnotationRecord, error) {
	return r.latest(dbc, map[string]any{"call_id": itemID, "username": username})
}

func (r *annotationRepo) QueryLatestForItemByRole(dbc dbctx.Context, itemID string, role domlabel.Role) (*domlabel.AnnotationRecord, error) {
	return r.latest(dbc, map[string]any{"call_id": itemID, "role": string(role)})
}

func (r *annotationRepo) Count(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).Model(&domlabel.AnnotationRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: count annotations: %v", pkgerrors.ErrStorage, err)
	}
	return n, nil
}

func (r *annotationRepo) latest(dbc dbctx.Context, where map[string]any) (*domlabel.AnnotationRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domlabel.AnnotationRecord
	err := t.WithContext(dbc.Ctx).Where(where).Order(newestFirst).Limit(1).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: latest annotation: %v", pkgerrors.ErrStorage, err)
	}
	return &row, nil
}

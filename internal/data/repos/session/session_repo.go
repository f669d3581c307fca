package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSessionRepo stores sessions in the labeling_session_state table.
func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) Store {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Get(dbc dbctx.Context, sessionID string) (*domlabel.SessionState, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row domlabel.SessionStateRow
	err := t.WithContext(dbc.Ctx).Where("session_id = ?", sessionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return fromRow(&row)
}

func (r *sessionRepo) Save(dbc dbctx.Context, st *domlabel.SessionState) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	row, err := toRow(st)
	if err != nil {
		return err
	}
	err = t.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *sessionRepo) Delete(dbc dbctx.Context, sessionID string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Where("session_id = ?", sessionID).Delete(&domlabel.SessionStateRow{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func toRow(st *domlabel.SessionState) (*domlabel.SessionStateRow, error) {
	if st == nil || st.SessionID == "" {
		return nil, fmt.Errorf("save session: missing session id")
	}
	completed := make([]int, 0, len(st.Navigation.CompletedIndices))
	for i, ok := range st.Navigation.CompletedIndices {
		if ok {
			completed = append(completed, i)
		}
	}
	sort.Ints(completed)
	raw, err := json.Marshal(completed)
	if err != nil {
		return nil, fmt.Errorf("encode completed indices: %w", err)
	}
	return &domlabel.SessionStateRow{
		SessionID:        st.SessionID,
		Username:         st.Username,
		DisplayName:      st.DisplayName,
		Role:             string(st.Role),
		CurrentIndex:     st.Navigation.CurrentIndex,
		CompletedIndices: datatypes.JSON(raw),
		WorklistLength:   st.Navigation.WorklistLength,
		Done:             st.Navigation.Done,
		ConfidenceFilter: st.ConfidenceFilter,
		HistoryVersion:   st.HistoryVersion,
		UpdatedAt:        st.UpdatedAt,
	}, nil
}

func fromRow(row *domlabel.SessionStateRow) (*domlabel.SessionState, error) {
	var completed []int
	if len(row.CompletedIndices) > 0 {
		if err := json.Unmarshal(row.CompletedIndices, &completed); err != nil {
			return nil, fmt.Errorf("decode completed indices: %w", err)
		}
	}
	nav := domlabel.NavigationState{
		CurrentIndex:     row.CurrentIndex,
		CompletedIndices: make(map[int]bool, len(completed)),
		WorklistLength:   row.WorklistLength,
		Done:             row.Done,
	}
	for _, i := range completed {
		nav.CompletedIndices[i] = true
	}
	return &domlabel.SessionState{
		SessionID:        row.SessionID,
		Username:         row.Username,
		DisplayName:      row.DisplayName,
		Role:             domlabel.Role(row.Role),
		Navigation:       nav,
		ConfidenceFilter: row.ConfidenceFilter,
		HistoryVersion:   row.HistoryVersion,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

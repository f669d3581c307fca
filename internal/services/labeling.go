package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/labelbridge-backend/internal/data/repos/session"
	"github.com/yungbote/labelbridge-backend/internal/data/source"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/labelbridge-backend/internal/pkg/errors"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
	"github.com/yungbote/labelbridge-backend/internal/platform/apierr"
)

// DatasetSource exposes the current source snapshot.
type DatasetSource interface {
	Current() (*source.Dataset, uint64)
}

type SaveInput struct {
	Intents    []string `json:"intents"`
	SubIntents []string `json:"sub_intents"`
	Confidence string   `json:"confidence"`
	Comment    string   `json:"comment"`
}

type JumpInput struct {
	ConnectionID string `json:"connection_id"`
	ChunkID      *int   `json:"chunk_id"`
}

type SettingsInput struct {
	ConfidenceFilter *bool `json:"confidence_filter"`
}

type ListAnnotationsInput struct {
	CallID   string
	Username string
	Limit    int
}

type LabelingService interface {
	StartSession(dbc dbctx.Context, st *domlabel.SessionState) error
	EndSession(dbc dbctx.Context, sessionID string) error

	Current(ctx context.Context) (*View, error)
	Next(ctx context.Context) (*View, error)
	Previous(ctx context.Context) (*View, error)
	SaveAndNext(ctx context.Context, in SaveInput) (*View, error)
	Jump(ctx context.Context, in JumpInput) (*View, error)
	UpdateSettings(ctx context.Context, in SettingsInput) (*View, error)
	Refresh(ctx context.Context) (*View, error)

	Taxonomy(ctx context.Context) labeling.Taxonomy
	ListAnnotations(ctx context.Context, in ListAnnotationsInput) ([]domlabel.AnnotationRecord, error)
	Worklist(ctx context.Context, username string, role domlabel.Role, confidenceFilter bool) (labeling.Worklist, error)
}

type LabelingConfig struct {
	HideReviewed            bool
	MaxChunksPerConnection  int
	DefaultConfidenceFilter bool
	Location                *time.Location
	Now                     func() time.Time
}

type LabelingDeps struct {
	Store    labeling.AnnotationStore
	Sessions session.Store
	Catalog  DatasetSource
	History  *HistoryCache
	Metrics  LabelingMetrics
}

type labelingService struct {
	log  *logger.Logger
	deps LabelingDeps
	cfg  LabelingConfig

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewLabelingService(deps LabelingDeps, cfg LabelingConfig, baseLog *logger.Logger) LabelingService {
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &labelingService{
		log:   baseLog.With("service", "LabelingService"),
		deps:  deps,
		cfg:   cfg,
		locks: map[string]*sync.Mutex{},
	}
}

// sessionContext carries everything one action needs.
type sessionContext struct {
	dbc      dbctx.Context
	state    *domlabel.SessionState
	dataset  *source.Dataset
	worklist labeling.Worklist
	ctrl     *labeling.Controller
	reset    bool
}

func (s *labelingService) StartSession(dbc dbctx.Context, st *domlabel.SessionState) error {
	if st == nil || st.SessionID == "" {
		return fmt.Errorf("start session: %w", pkgerrors.ErrInvalidArgument)
	}
	st.Navigation = domlabel.NewNavigationState(0)
	st.ConfidenceFilter = s.cfg.DefaultConfidenceFilter
	st.UpdatedAt = s.cfg.Now().UTC()
	s.deps.History.Invalidate("login")
	st.HistoryVersion = s.deps.History.Version()
	if err := s.deps.Sessions.Save(dbc, st); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	s.log.Info("Session started", "session_id", st.SessionID, "username", st.Username, "role", st.Role)
	return nil
}

func (s *labelingService) EndSession(dbc dbctx.Context, sessionID string) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	err := s.deps.Sessions.Delete(dbc, sessionID)
	mu.Unlock()

	s.locksMu.Lock()
	delete(s.locks, sessionID)
	s.locksMu.Unlock()

	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.deps.History.Invalidate("logout")
	s.log.Info("Session ended", "session_id", sessionID)
	return nil
}

func (s *labelingService) Current(ctx context.Context) (*View, error) {
	return s.withSession(ctx, "view", nil)
}

func (s *labelingService) Next(ctx context.Context) (*View, error) {
	return s.withSession(ctx, "next", func(sc *sessionContext) error {
		sc.ctrl.Next()
		return nil
	})
}

func (s *labelingService) Previous(ctx context.Context) (*View, error) {
	return s.withSession(ctx, "previous", func(sc *sessionContext) error {
		sc.ctrl.Previous()
		return nil
	})
}

func (s *labelingService) SaveAndNext(ctx context.Context, in SaveInput) (*View, error) {
	return s.withSession(ctx, "save_next", func(sc *sessionContext) error {
		if sc.ctrl.Status() != labeling.StatusActive {
			return nil
		}
		item := sc.worklist.At(sc.ctrl.Current())
		rec, err := s.buildRecord(sc, item, in)
		if err != nil {
			return err
		}
		return sc.ctrl.SaveAndNext(func() error {
			err := s.deps.Store.Append(sc.dbc, rec)
			s.deps.Metrics.RecordSave(sc.dbc.Ctx, string(sc.state.Role), err)
			if err != nil {
				s.log.Error("Save failed", "session_id", sc.state.SessionID, "call_id", rec.CallID, "error", err)
				return apierr.New(http.StatusInternalServerError, "save_failed", err)
			}
			s.log.Info("Annotation saved", "call_id", rec.CallID, "username", rec.Username, "role", rec.Role)
			return nil
		})
	})
}

func (s *labelingService) Jump(ctx context.Context, in JumpInput) (*View, error) {
	return s.withSession(ctx, "jump", func(sc *sessionContext) error {
		if !sc.state.Role.Reviews() {
			return apierr.New(http.StatusForbidden, "forbidden", fmt.Errorf("jump: %w", pkgerrors.ErrForbidden))
		}
		conn := strings.TrimSpace(in.ConnectionID)
		if conn == "" {
			return apierr.New(http.StatusBadRequest, "invalid_request", fmt.Errorf("connection_id is required: %w", pkgerrors.ErrInvalidArgument))
		}
		if in.ChunkID == nil {
			sc.ctrl.JumpToConnection(sc.worklist, conn)
		} else {
			sc.ctrl.JumpToChunk(sc.worklist, conn, *in.ChunkID)
		}
		return nil
	})
}

func (s *labelingService) UpdateSettings(ctx context.Context, in SettingsInput) (*View, error) {
	return s.withSession(ctx, "settings", func(sc *sessionContext) error {
		if !sc.state.Role.Reviews() {
			return apierr.New(http.StatusForbidden, "forbidden", fmt.Errorf("settings: %w", pkgerrors.ErrForbidden))
		}
		if in.ConfidenceFilter == nil || *in.ConfidenceFilter == sc.state.ConfidenceFilter {
			return nil
		}
		sc.state.ConfidenceFilter = *in.ConfidenceFilter
		return s.rebuild(sc)
	})
}

func (s *labelingService) Refresh(ctx context.Context) (*View, error) {
	return s.withSession(ctx, "refresh", func(sc *sessionContext) error {
		s.deps.History.Invalidate("refresh")
		return s.rebuild(sc)
	})
}

func (s *labelingService) Taxonomy(ctx context.Context) labeling.Taxonomy {
	ds, _ := s.deps.Catalog.Current()
	return ds.Taxonomy
}

func (s *labelingService) ListAnnotations(ctx context.Context, in ListAnnotationsInput) ([]domlabel.AnnotationRecord, error) {
	rows, err := s.deps.Store.QueryAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "annotations_failed", err)
	}
	out := make([]domlabel.AnnotationRecord, 0, len(rows))
	for _, r := range rows {
		if in.CallID != "" && r.CallID != in.CallID {
			continue
		}
		if in.Username != "" && r.Username != in.Username {
			continue
		}
		out = append(out, r)
		if in.Limit > 0 && len(out) >= in.Limit {
			break
		}
	}
	return out, nil
}

// Worklist builds a worklist against the live annotation table.
func (s *labelingService) Worklist(ctx context.Context, username string, role domlabel.Role, confidenceFilter bool) (labeling.Worklist, error) {
	history, err := s.deps.Store.QueryAll(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, err
	}
	ds, _ := s.deps.Catalog.Current()
	return labeling.Build(labeling.BuildInput{
		Role:        role,
		Username:    username,
		Items:       ds.Items,
		Assignments: ds.Assignments,
		History:     history,
		Options:     s.buildOptions(role, confidenceFilter),
	})
}

func (s *labelingService) withSession(ctx context.Context, action string, fn func(sc *sessionContext) error) (*View, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.SessionID == "" {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
	}
	mu := s.lockFor(rd.SessionID)
	mu.Lock()
	defer mu.Unlock()

	dbc := dbctx.Context{Ctx: ctx}
	st, err := s.deps.Sessions.Get(dbc, rd.SessionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_failed", err)
	}
	if st == nil {
		return nil, apierr.New(http.StatusUnauthorized, "session_expired", pkgerrors.ErrUnauthorized)
	}

	sc := &sessionContext{dbc: dbc, state: st}
	if err := s.rebuild(sc); err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(sc); err != nil {
			return nil, err
		}
		s.deps.Metrics.RecordNavigation(ctx, action, string(st.Role))
	}

	st.UpdatedAt = s.cfg.Now().UTC()
	if err := s.deps.Sessions.Save(dbc, st); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_failed", err)
	}
	return s.view(sc)
}

// rebuild derives the worklist for the session and reconciles its navigation state.
func (s *labelingService) rebuild(sc *sessionContext) error {
	st := sc.state
	history, version, err := s.deps.History.Snapshot(sc.dbc)
	if err != nil {
		s.log.Error("Worklist build failed", "session_id", st.SessionID, "error", err)
		return apierr.New(http.StatusInternalServerError, "worklist_build_failed", err)
	}
	ds, _ := s.deps.Catalog.Current()

	start := time.Now()
	wl, err := labeling.Build(labeling.BuildInput{
		Role:        st.Role,
		Username:    st.Username,
		Items:       ds.Items,
		Assignments: ds.Assignments,
		History:     history,
		Options:     s.buildOptions(st.Role, st.ConfidenceFilter),
	})
	s.deps.Metrics.RecordWorklistBuild(sc.dbc.Ctx, string(st.Role), len(wl), time.Since(start), err)
	if err != nil {
		s.log.Error("Worklist build failed", "session_id", st.SessionID, "username", st.Username, "error", err)
		return apierr.New(http.StatusInternalServerError, "worklist_build_failed", err)
	}

	if labeling.Reconcile(&st.Navigation, wl.Len()) {
		sc.reset = true
		s.deps.Metrics.RecordReset(sc.dbc.Ctx, string(st.Role))
		s.log.Debug("Navigation reset", "session_id", st.SessionID, "worklist_length", wl.Len())
	}
	st.HistoryVersion = version
	sc.dataset = ds
	sc.worklist = wl
	sc.ctrl = labeling.NewController(labeling.PolicyFor(st.Role), &st.Navigation)
	return nil
}

func (s *labelingService) buildOptions(role domlabel.Role, confidenceFilter bool) labeling.BuildOptions {
	if !role.Reviews() {
		return labeling.BuildOptions{}
	}
	return labeling.BuildOptions{
		ConfidenceFilter:       confidenceFilter,
		HideReviewed:           s.cfg.HideReviewed,
		MaxChunksPerConnection: s.cfg.MaxChunksPerConnection,
	}
}

func (s *labelingService) buildRecord(sc *sessionContext, item *labeling.WorkItem, in SaveInput) (*domlabel.AnnotationRecord, error) {
	if item == nil {
		return nil, apierr.New(http.StatusConflict, "no_current_item", fmt.Errorf("no current item"))
	}
	conf, ok := domlabel.ParseConfidence(in.Confidence)
	if !ok {
		return nil, apierr.New(http.StatusBadRequest, "invalid_request",
			fmt.Errorf("confidence must be one of High, Medium, Low: %w", pkgerrors.ErrInvalidArgument))
	}
	tax := sc.dataset.Taxonomy
	intents := cleanList(in.Intents)
	if len(tax.Intents) > 0 {
		for _, intent := range intents {
			if !tax.HasIntent(intent) {
				return nil, apierr.New(http.StatusBadRequest, "invalid_request",
					fmt.Errorf("unknown intent %q: %w", intent, pkgerrors.ErrInvalidArgument))
			}
		}
	}
	subs := labeling.ReconcileSubIntents(intents, tax, cleanList(in.SubIntents))

	now := s.cfg.Now().In(s.cfg.Location)
	return &domlabel.AnnotationRecord{
		CallID:      item.ItemID(),
		Username:    sc.state.Username,
		Role:        string(sc.state.Role),
		Date:        now.Format("2006-01-02"),
		Time:        now.Format("15:04:05"),
		CaseType:    domlabel.JoinList(intents),
		SubcaseType: domlabel.JoinList(subs),
		Confidence:  string(conf),
		Comments:    strings.TrimSpace(in.Comment),
	}, nil
}

func (s *labelingService) view(sc *sessionContext) (*View, error) {
	st := sc.state
	done, total := sc.ctrl.Progress()
	v := &View{
		Status:            sc.ctrl.Status(),
		Username:          st.Username,
		DisplayName:       st.DisplayName,
		Role:              st.Role,
		Position:          sc.ctrl.Current(),
		Total:             total,
		Completed:         done,
		Reset:             sc.reset,
		ConfidenceOptions: confidenceOptions(),
	}
	if st.Role.Reviews() {
		filter := st.ConfidenceFilter
		v.ConfidenceFilter = &filter
	}
	if v.Status != labeling.StatusActive {
		return v, nil
	}

	item := sc.worklist.At(sc.ctrl.Current())
	v.Item = newItemView(item)
	defaults, err := labeling.NewResolver(st.Role, s.deps.Store).Resolve(sc.dbc, item, st.Username, sc.dataset.Taxonomy)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "defaults_failed", err)
	}
	v.Defaults = &defaults
	if st.Role.Reviews() {
		v.Jump = &JumpOptions{
			ConnectionIDs: sc.worklist.ConnectionIDs(),
			ChunkIDs:      sc.worklist.ChunkIDs(item.ConnectionID),
		}
	}
	return v, nil
}

func (s *labelingService) lockFor(sessionID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[sessionID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[sessionID] = mu
	}
	return mu
}

func cleanList(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

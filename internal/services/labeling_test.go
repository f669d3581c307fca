package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/labelbridge-backend/internal/data/repos/annotation"
	"github.com/yungbote/labelbridge-backend/internal/data/repos/session"
	"github.com/yungbote/labelbridge-backend/internal/data/repos/testutil"
	"github.com/yungbote/labelbridge-backend/internal/data/source"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/labelbridge-backend/internal/platform/apierr"
)

type staticCatalog struct {
	ds *source.Dataset
}

func (c *staticCatalog) Current() (*source.Dataset, uint64) { return c.ds, 1 }

func testDataset() *source.Dataset {
	return &source.Dataset{
		Items: []labeling.SourceItem{
			{ConnectionID: "c1", ChunkID: 0, Text: "t0", DefaultIntents: "Billing", DefaultSubIntents: "Refund, Address Change"},
			{ConnectionID: "c1", ChunkID: 1, Text: "t1"},
			{ConnectionID: "c2", ChunkID: 0, Text: "t2", DefaultIntents: "Address"},
			{ConnectionID: "c3", ChunkID: 0, Text: "t3"},
		},
		Taxonomy: labeling.NewTaxonomy([]labeling.TaxonomyPair{
			{Intent: "Billing", SubIntent: "Refund"},
			{Intent: "Billing", SubIntent: "Late Fee"},
			{Intent: "Address", SubIntent: "Address Change"},
		}),
		Assignments: []labeling.Assignment{
			{ConnectionID: "c1", Annotator: "ann", Reviewer: "rev"},
			{ConnectionID: "c2", Annotator: "ann", Reviewer: "rev"},
			{ConnectionID: "c3", Annotator: "ann2", Reviewer: "rev"},
		},
	}
}

// failingStore fails every Append while fail is set.
type failingStore struct {
	labeling.AnnotationStore
	fail bool
}

func (f *failingStore) Append(dbc dbctx.Context, rec *domlabel.AnnotationRecord) error {
	if f.fail {
		return errors.New("database is locked")
	}
	return f.AnnotationStore.Append(dbc, rec)
}

type harness struct {
	svc      LabelingService
	store    *failingStore
	sessions session.Store
	history  *HistoryCache
	clock    time.Time
}

func newHarness(t *testing.T, cfg LabelingConfig) *harness {
	t.Helper()
	log := testutil.Logger(t)
	h := &harness{
		store:    &failingStore{AnnotationStore: annotation.NewAnnotationRepo(testutil.DB(t), log)},
		sessions: session.NewMemoryStore(),
		clock:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	h.history = NewHistoryCache(h.store, log)
	cfg.Location = time.UTC
	cfg.Now = func() time.Time {
		h.clock = h.clock.Add(time.Second)
		return h.clock
	}
	h.svc = NewLabelingService(LabelingDeps{
		Store:    h.store,
		Sessions: h.sessions,
		Catalog:  &staticCatalog{ds: testDataset()},
		History:  h.history,
	}, cfg, log)
	return h
}

func (h *harness) login(t *testing.T, sessionID, username string, role domlabel.Role) context.Context {
	t.Helper()
	st := &domlabel.SessionState{SessionID: sessionID, Username: username, DisplayName: username, Role: role}
	if err := h.svc.StartSession(testutil.Ctx(), st); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		Username: username, Role: string(role), SessionID: sessionID,
	})
}

func statusOf(err error) int {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

func TestAnnotatorFlowCompletesWorklist(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	ctx := h.login(t, "s1", "ann", domlabel.RoleAnnotator)

	v, err := h.svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v.Status != labeling.StatusActive || v.Total != 3 || v.Item.ItemID != "c1_chunk_0" {
		t.Fatalf("unexpected first view: %+v", v)
	}
	if got := v.Defaults.SubIntents; len(got) != 1 || got[0] != "Refund" {
		t.Fatalf("expected stale sub-intent to be dropped, got %v", got)
	}
	if v.Jump != nil || v.ConfidenceFilter != nil {
		t.Fatalf("annotators get no reviewer controls")
	}

	for i := 0; i < 3; i++ {
		v, err = h.svc.SaveAndNext(ctx, SaveInput{Intents: []string{"Billing"}, SubIntents: []string{"Late Fee", "Address Change"}, Confidence: "medium"})
		if err != nil {
			t.Fatalf("SaveAndNext %d: %v", i, err)
		}
	}
	if v.Status != labeling.StatusAllDone || v.Completed != 3 || v.Item != nil {
		t.Fatalf("expected all_done, got %+v", v)
	}

	rows, err := h.svc.ListAnnotations(context.Background(), ListAnnotationsInput{Username: "ann"})
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListAnnotations: %d %v", len(rows), err)
	}
	last := rows[0]
	if last.Confidence != "Medium" || last.SubcaseType != "Late Fee" || last.CaseType != "Billing" || last.Role != "annotator" {
		t.Fatalf("unexpected stored record: %+v", last)
	}
	if last.Date != "2024-05-01" || last.Time == "" {
		t.Fatalf("unexpected timestamp %s %s", last.Date, last.Time)
	}

	// worklist keeps its shape until the history snapshot is invalidated
	v, _ = h.svc.Next(ctx)
	if v.Status != labeling.StatusAllDone {
		t.Fatalf("all_done must be terminal, got %s", v.Status)
	}
	v, err = h.svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v.Status != labeling.StatusEmpty || !v.Reset {
		t.Fatalf("after refresh the annotated items leave the worklist, got %+v", v)
	}
}

func TestSaveFailureKeepsPosition(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	ctx := h.login(t, "s1", "ann", domlabel.RoleAnnotator)
	if _, err := h.svc.Next(ctx); err != nil {
		t.Fatalf("Next: %v", err)
	}
	h.store.fail = true
	_, err := h.svc.SaveAndNext(ctx, SaveInput{Intents: []string{"Billing"}, Confidence: "High"})
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusInternalServerError || ae.Code != "save_failed" {
		t.Fatalf("expected save_failed, got %v", err)
	}
	h.store.fail = false
	v, err := h.svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v.Position != 1 || v.Completed != 0 {
		t.Fatalf("navigation advanced after failed save: %+v", v)
	}
}

func TestSaveValidation(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	ctx := h.login(t, "s1", "ann", domlabel.RoleAnnotator)
	if _, err := h.svc.SaveAndNext(ctx, SaveInput{Intents: []string{"Billing"}, Confidence: "Sure"}); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad confidence, got %v", err)
	}
	if _, err := h.svc.SaveAndNext(ctx, SaveInput{Intents: []string{"Weather"}, Confidence: "High"}); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown intent, got %v", err)
	}
}

func TestReviewerPendingThenReviewed(t *testing.T) {
	h := newHarness(t, LabelingConfig{DefaultConfidenceFilter: false})
	annCtx := h.login(t, "a1", "ann", domlabel.RoleAnnotator)
	if _, err := h.svc.SaveAndNext(annCtx, SaveInput{Intents: []string{"Billing"}, SubIntents: []string{"Refund"}, Confidence: "Low", Comment: "unsure"}); err != nil {
		t.Fatalf("annotator save: %v", err)
	}

	revCtx := h.login(t, "r1", "rev", domlabel.RoleReviewer)
	v, err := h.svc.Current(revCtx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v.Total != 1 || v.Item.ItemID != "c1_chunk_0" || v.Item.AnnotatorRecord == nil {
		t.Fatalf("unexpected reviewer view: %+v", v)
	}
	if v.Defaults.ReviewStatus != labeling.ReviewPending || v.Defaults.SubIntents[0] != "Refund" || v.Defaults.Comment != "" {
		t.Fatalf("pending defaults: %+v", v.Defaults)
	}
	if v.Jump == nil || len(v.Jump.ConnectionIDs) != 1 || v.Jump.ChunkIDs[0] != 0 {
		t.Fatalf("jump options: %+v", v.Jump)
	}

	v, err = h.svc.SaveAndNext(revCtx, SaveInput{Intents: []string{"Address"}, SubIntents: []string{"Address Change"}, Confidence: "High", Comment: "relabelled"})
	if err != nil {
		t.Fatalf("reviewer save: %v", err)
	}
	if v.Status != labeling.StatusActive || v.Position != 0 {
		t.Fatalf("reviewer save-next wraps and never terminates: %+v", v)
	}
	if v.Defaults.ReviewStatus != labeling.ReviewReviewed || v.Defaults.Intents[0] != "Address" || v.Defaults.Comment != "relabelled" || v.Defaults.Confidence != "High" {
		t.Fatalf("reviewed defaults: %+v", v.Defaults)
	}
}

func TestReviewerConfidenceFilterSetting(t *testing.T) {
	h := newHarness(t, LabelingConfig{DefaultConfidenceFilter: true})
	annCtx := h.login(t, "a1", "ann", domlabel.RoleAnnotator)
	_, _ = h.svc.SaveAndNext(annCtx, SaveInput{Intents: []string{"Billing"}, Confidence: "High"})
	_, _ = h.svc.SaveAndNext(annCtx, SaveInput{Intents: []string{"Billing"}, Confidence: "Low"})

	revCtx := h.login(t, "r1", "rev", domlabel.RoleAdmin)
	v, err := h.svc.Current(revCtx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if v.Total != 1 || v.ConfidenceFilter == nil || !*v.ConfidenceFilter {
		t.Fatalf("expected High item filtered out, got %+v", v)
	}
	off := false
	v, err = h.svc.UpdateSettings(revCtx, SettingsInput{ConfidenceFilter: &off})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if v.Total != 2 || !v.Reset {
		t.Fatalf("expected worklist to grow and reset, got %+v", v)
	}
}

func TestReviewerJump(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	annCtx := h.login(t, "a1", "ann", domlabel.RoleAnnotator)
	for i := 0; i < 3; i++ {
		_, _ = h.svc.SaveAndNext(annCtx, SaveInput{Confidence: "Low"})
	}
	revCtx := h.login(t, "r1", "rev", domlabel.RoleReviewer)
	v, err := h.svc.Jump(revCtx, JumpInput{ConnectionID: "c2"})
	if err != nil || v.Item.ItemID != "c2_chunk_0" {
		t.Fatalf("jump to connection: %+v %v", v, err)
	}
	one := 1
	v, _ = h.svc.Jump(revCtx, JumpInput{ConnectionID: "c1", ChunkID: &one})
	if v.Item.ItemID != "c1_chunk_1" {
		t.Fatalf("jump to chunk: %s", v.Item.ItemID)
	}
	v, _ = h.svc.Jump(revCtx, JumpInput{ConnectionID: "gone"})
	if v.Item.ItemID != "c1_chunk_1" {
		t.Fatalf("unknown jump target must be ignored, got %s", v.Item.ItemID)
	}
	if _, err := h.svc.Jump(annCtx, JumpInput{ConnectionID: "c2"}); statusOf(err) != http.StatusForbidden {
		t.Fatalf("annotator jump should be forbidden, got %v", err)
	}
}

func TestWorklistSizeChangeResetsNavigation(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	ctx := h.login(t, "s1", "ann", domlabel.RoleAnnotator)
	_, _ = h.svc.Next(ctx)
	v, _ := h.svc.Next(ctx)
	if v.Position != 2 {
		t.Fatalf("expected position 2, got %d", v.Position)
	}

	// another session labels one of ann's items and the snapshot is invalidated
	if err := h.store.Append(testutil.Ctx(), &domlabel.AnnotationRecord{CallID: "c2_chunk_0", Username: "ann", Role: "annotator", Date: "2024-05-01", Time: "08:00:00"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	h.history.Invalidate("test")

	v, err := h.svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !v.Reset || v.Position != 0 || v.Total != 2 || v.Completed != 0 {
		t.Fatalf("expected reset navigation, got %+v", v)
	}
}

func TestEndSessionRejectsFurtherActions(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	ctx := h.login(t, "s1", "ann", domlabel.RoleAnnotator)
	if err := h.svc.EndSession(testutil.Ctx(), "s1"); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if _, err := h.svc.Current(ctx); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %v", err)
	}
	if _, err := h.svc.Current(context.Background()); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %v", err)
	}
}

func TestWorklistUsesLiveHistory(t *testing.T) {
	h := newHarness(t, LabelingConfig{})
	_ = h.store.Append(testutil.Ctx(), &domlabel.AnnotationRecord{CallID: "c1_chunk_0", Username: "x", Role: "annotator", Date: "2024-05-01", Time: "08:00:00"})
	w, err := h.svc.Worklist(context.Background(), "ann", domlabel.RoleAnnotator, false)
	if err != nil {
		t.Fatalf("Worklist: %v", err)
	}
	if w.Len() != 2 || w[0].ItemID() != "c1_chunk_1" {
		t.Fatalf("unexpected worklist %v", w)
	}
}

package labeling

import (
	"context"
	"testing"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
)

// memStore is an in-memory AnnotationStore for resolver tests.
type memStore struct {
	rows   []domlabel.AnnotationRecord
	nextID uint
}

func (m *memStore) Append(_ dbctx.Context, rec *domlabel.AnnotationRecord) error {
	m.nextID++
	rec.ID = m.nextID
	m.rows = append(m.rows, *rec)
	return nil
}

func (m *memStore) QueryAll(_ dbctx.Context) ([]domlabel.AnnotationRecord, error) {
	return append([]domlabel.AnnotationRecord(nil), m.rows...), nil
}

func (m *memStore) latest(match func(*domlabel.AnnotationRecord) bool) *domlabel.AnnotationRecord {
	var best *domlabel.AnnotationRecord
	for i := range m.rows {
		r := &m.rows[i]
		if match(r) && r.Newer(best) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

func (m *memStore) QueryLatestForItem(_ dbctx.Context, itemID string) (*domlabel.AnnotationRecord, error) {
	return m.latest(func(r *domlabel.AnnotationRecord) bool { return r.CallID == itemID }), nil
}

func (m *memStore) QueryLatestForItemBy(_ dbctx.Context, itemID, username string) (*domlabel.AnnotationRecord, error) {
	return m.latest(func(r *domlabel.AnnotationRecord) bool { return r.CallID == itemID && r.Username == username }), nil
}

func (m *memStore) QueryLatestForItemByRole(_ dbctx.Context, itemID string, role domlabel.Role) (*domlabel.AnnotationRecord, error) {
	return m.latest(func(r *domlabel.AnnotationRecord) bool { return r.CallID == itemID && r.Role == string(role) }), nil
}

func billingTaxonomy() Taxonomy {
	return NewTaxonomy([]TaxonomyPair{
		{Intent: "Billing", SubIntent: "Late Fee"},
		{Intent: "Billing", SubIntent: "Refund"},
		{Intent: "Address", SubIntent: "Address Change"},
	})
}

func TestReconcileSubIntentsDropsStaleChildren(t *testing.T) {
	got := ReconcileSubIntents([]string{"Billing"}, billingTaxonomy(), ParseOptions("Refund, Address Change"))
	if !equalStrings(got, []string{"Refund"}) {
		t.Fatalf("got %v", got)
	}
}

func TestSourceDefaults(t *testing.T) {
	item := &WorkItem{SourceItem: SourceItem{ConnectionID: "c1", ChunkID: 1, DefaultIntents: " Billing ,,", DefaultSubIntents: "Refund, Address Change"}}
	d, err := NewResolver(domlabel.RoleAnnotator, nil).Resolve(dbctx.Context{Ctx: context.Background()}, item, "u", billingTaxonomy())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !equalStrings(d.Intents, []string{"Billing"}) || !equalStrings(d.SubIntents, []string{"Refund"}) {
		t.Fatalf("unexpected defaults: %+v", d)
	}
	if !equalStrings(d.ValidSubIntents, []string{"Late Fee", "Refund"}) {
		t.Fatalf("valid sub-intents = %v", d.ValidSubIntents)
	}
	if d.Confidence != "" || d.Comment != "" || d.ReviewStatus != "" {
		t.Fatalf("annotator confidence and comment must be unset: %+v", d)
	}
}

func TestHistoryDefaultsPendingThenReviewed(t *testing.T) {
	ctx := dbctx.Context{Ctx: context.Background()}
	store := &memStore{}
	_ = store.Append(ctx, &domlabel.AnnotationRecord{
		CallID: "c1_chunk_1", Username: "ann", Role: "annotator", Date: "2024-01-01", Time: "09:00:00",
		CaseType: "Billing", SubcaseType: "Late Fee", Confidence: "Low", Comments: "annotator note",
	})
	item := &WorkItem{SourceItem: SourceItem{ConnectionID: "c1", ChunkID: 1}}
	res := NewResolver(domlabel.RoleReviewer, store)

	d, err := res.Resolve(ctx, item, "rev1", billingTaxonomy())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.ReviewStatus != ReviewPending || !equalStrings(d.Intents, []string{"Billing"}) || !equalStrings(d.SubIntents, []string{"Late Fee"}) {
		t.Fatalf("pending defaults: %+v", d)
	}
	if d.Confidence != "" || d.Comment != "" {
		t.Fatalf("pending review must not inherit annotator confidence or comment: %+v", d)
	}

	_ = store.Append(ctx, &domlabel.AnnotationRecord{
		CallID: "c1_chunk_1", Username: "rev1", Role: "reviewer", Date: "2024-01-02", Time: "09:00:00",
		CaseType: "Address", SubcaseType: "Address Change", Confidence: "Medium", Comments: "fixed",
	})
	d, err = res.Resolve(ctx, item, "rev1", billingTaxonomy())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if d.ReviewStatus != ReviewReviewed || !equalStrings(d.Intents, []string{"Address"}) || !equalStrings(d.SubIntents, []string{"Address Change"}) {
		t.Fatalf("reviewed defaults: %+v", d)
	}
	if d.Confidence != "Medium" || d.Comment != "fixed" {
		t.Fatalf("reviewer should resume their own edit: %+v", d)
	}

	other, _ := res.Resolve(ctx, item, "rev2", billingTaxonomy())
	if other.ReviewStatus != ReviewPending {
		t.Fatalf("review status is per reviewer, got %s", other.ReviewStatus)
	}
}

func TestHistoryDefaultsPreferCarriedAnnotatorRecord(t *testing.T) {
	store := &memStore{}
	item := &WorkItem{
		SourceItem:      SourceItem{ConnectionID: "c1", ChunkID: 1},
		AnnotatorRecord: &domlabel.AnnotationRecord{CaseType: "Billing", SubcaseType: "Refund"},
	}
	d, err := NewResolver(domlabel.RoleAdmin, store).Resolve(dbctx.Context{Ctx: context.Background()}, item, "admin", billingTaxonomy())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !equalStrings(d.SubIntents, []string{"Refund"}) {
		t.Fatalf("got %+v", d)
	}
}

func TestTaxonomyKeepsFeedOrder(t *testing.T) {
	tax := NewTaxonomy([]TaxonomyPair{
		{Intent: "B", SubIntent: "b2"},
		{Intent: "A", SubIntent: "a1"},
		{Intent: "B", SubIntent: "b1"},
		{Intent: "B", SubIntent: "b2"},
		{Intent: " ", SubIntent: "x"},
		{Intent: "C"},
	})
	if !equalStrings(tax.Intents, []string{"B", "A", "C"}) {
		t.Fatalf("intents = %v", tax.Intents)
	}
	if !equalStrings(tax.SubIntents["B"], []string{"b2", "b1"}) || len(tax.SubIntents["C"]) != 0 {
		t.Fatalf("sub-intents = %v", tax.SubIntents)
	}
	if got := tax.ValidSubIntents([]string{"A", "B", "A"}); !equalStrings(got, []string{"a1", "b2", "b1"}) {
		t.Fatalf("valid = %v", got)
	}
}

func TestParseOptions(t *testing.T) {
	if got := ParseOptions(""); got == nil || len(got) != 0 {
		t.Fatalf("empty input should give empty non-nil list, got %#v", got)
	}
	if got := ParseOptions("a, b ,, c"); !equalStrings(got, []string{"a", "b", "c"}) {
		t.Fatalf("got %v", got)
	}
	if ItemID("conn", 7) != "conn_chunk_7" {
		t.Fatalf("ItemID = %s", ItemID("conn", 7))
	}
}

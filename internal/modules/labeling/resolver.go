package labeling

import (
	"fmt"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "Pending"
	ReviewReviewed ReviewStatus = "Reviewed"
)

// Defaults pre-populate the edit form of one item.
type Defaults struct {
	Intents         []string     `json:"intents"`
	SubIntents      []string     `json:"sub_intents"`
	ValidSubIntents []string     `json:"valid_sub_intents"`
	Confidence      string       `json:"confidence"`
	Comment         string       `json:"comment"`
	ReviewStatus    ReviewStatus `json:"review_status,omitempty"`
}

type Resolver interface {
	Resolve(dbc dbctx.Context, item *WorkItem, username string, tax Taxonomy) (Defaults, error)
}

// NewResolver picks the strategy of a role: source defaults for annotators, history for reviewers.
func NewResolver(role domlabel.Role, store AnnotationStore) Resolver {
	if role.Reviews() {
		return &HistoryDefaults{store: store}
	}
	return SourceDefaults{}
}

type SourceDefaults struct{}

func (SourceDefaults) Resolve(_ dbctx.Context, item *WorkItem, _ string, tax Taxonomy) (Defaults, error) {
	if item == nil {
		return Defaults{}, fmt.Errorf("resolve defaults: nil item")
	}
	return finish(tax, ParseOptions(item.DefaultIntents), ParseOptions(item.DefaultSubIntents), "", "", ""), nil
}

type HistoryDefaults struct {
	store AnnotationStore
}

func (h *HistoryDefaults) Resolve(dbc dbctx.Context, item *WorkItem, username string, tax Taxonomy) (Defaults, error) {
	if item == nil {
		return Defaults{}, fmt.Errorf("resolve defaults: nil item")
	}
	itemID := item.ItemID()
	own, err := h.store.QueryLatestForItemBy(dbc, itemID, username)
	if err != nil {
		return Defaults{}, fmt.Errorf("load review of %s: %w", itemID, err)
	}
	if own != nil {
		return finish(tax, own.Intents(), own.SubIntents(), own.Confidence, own.Comments, ReviewReviewed), nil
	}

	src := item.AnnotatorRecord
	if src == nil {
		src, err = h.store.QueryLatestForItemByRole(dbc, itemID, domlabel.RoleAnnotator)
		if err != nil {
			return Defaults{}, fmt.Errorf("load annotation of %s: %w", itemID, err)
		}
	}
	return finish(tax, src.Intents(), src.SubIntents(), "", "", ReviewPending), nil
}

func finish(tax Taxonomy, intents, rawSubs []string, confidence, comment string, status ReviewStatus) Defaults {
	if len(tax.Intents) > 0 {
		intents = FilterIntents(tax, intents)
	}
	return Defaults{
		Intents:         intents,
		SubIntents:      ReconcileSubIntents(intents, tax, rawSubs),
		ValidSubIntents: tax.ValidSubIntents(intents),
		Confidence:      confidence,
		Comment:         comment,
		ReviewStatus:    status,
	}
}

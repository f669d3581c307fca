package source

import (
	"context"
	"time"

	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
)

// Dataset is one immutable snapshot of the three source feeds.
type Dataset struct {
	Items       []labeling.SourceItem
	Taxonomy    labeling.Taxonomy
	Assignments []labeling.Assignment
	LoadedAt    time.Time
}

// Loader produces a fresh Dataset from its backing store.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
	Describe() string
}

func emptyDataset() *Dataset {
	return &Dataset{
		Items:       []labeling.SourceItem{},
		Taxonomy:    labeling.NewTaxonomy(nil),
		Assignments: []labeling.Assignment{},
	}
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*Dataset, error)

func (f LoaderFunc) Load(ctx context.Context) (*Dataset, error) { return f(ctx) }

func (f LoaderFunc) Describe() string { return "func" }

package labeling

import (
	"errors"
	"fmt"
	"strings"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

var ErrInvalidSource = errors.New("invalid source data")

type BuildOptions struct {
	// ConfidenceFilter drops review items whose latest annotator confidence is High.
	ConfidenceFilter bool
	// HideReviewed drops review items the reviewer has already saved.
	HideReviewed bool
	// MaxChunksPerConnection keeps only the first N chunks of each connection on review worklists. 0 disables.
	MaxChunksPerConnection int
}

type BuildInput struct {
	Role        domlabel.Role
	Username    string
	Items       []SourceItem
	Assignments []Assignment
	History     []domlabel.AnnotationRecord
	Options     BuildOptions
}

// Build derives the ordered worklist of one user. It has no side effects.
func Build(in BuildInput) (Worklist, error) {
	if _, ok := domlabel.ParseRole(string(in.Role)); !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSource, in.Role)
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}
	assignments, err := indexAssignments(in.Assignments)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" || len(in.Items) == 0 {
		return Worklist{}, nil
	}

	var out []WorkItem
	if in.Role.Reviews() {
		out = buildReview(in, username, assignments)
	} else {
		out = buildAnnotate(in, username, assignments)
	}
	sortWorkItems(out)
	if in.Role.Reviews() && in.Options.MaxChunksPerConnection > 0 {
		out = capPerConnection(out, in.Options.MaxChunksPerConnection)
	}
	return Worklist(out), nil
}

func buildAnnotate(in BuildInput, username string, assignments map[string]Assignment) []WorkItem {
	annotated := make(map[string]bool, len(in.History))
	for i := range in.History {
		annotated[in.History[i].CallID] = true
	}
	out := []WorkItem{}
	for _, it := range in.Items {
		a, ok := assignments[it.ConnectionID]
		if !ok || a.Annotator != username {
			continue
		}
		if annotated[it.ItemID()] {
			continue
		}
		out = append(out, WorkItem{SourceItem: it, Annotator: a.Annotator, Reviewer: a.Reviewer})
	}
	return out
}

func buildReview(in BuildInput, username string, assignments map[string]Assignment) []WorkItem {
	latest := map[string]*domlabel.AnnotationRecord{}
	reviewed := map[string]bool{}
	for i := range in.History {
		rec := &in.History[i]
		if rec.Username == username && rec.Role != string(domlabel.RoleAnnotator) {
			reviewed[rec.CallID] = true
		}
		if rec.Role != string(domlabel.RoleAnnotator) {
			continue
		}
		if cur, ok := latest[rec.CallID]; !ok || rec.Newer(cur) {
			latest[rec.CallID] = rec
		}
	}

	out := []WorkItem{}
	for _, it := range in.Items {
		a, ok := assignments[it.ConnectionID]
		if !ok || a.Reviewer != username {
			continue
		}
		rec, ok := latest[it.ItemID()]
		if !ok {
			continue
		}
		if in.Options.ConfidenceFilter {
			if c, ok := domlabel.ParseConfidence(rec.Confidence); ok && c == domlabel.ConfidenceHigh {
				continue
			}
		}
		if in.Options.HideReviewed && reviewed[it.ItemID()] {
			continue
		}
		cp := *rec
		out = append(out, WorkItem{SourceItem: it, Annotator: a.Annotator, Reviewer: a.Reviewer, AnnotatorRecord: &cp})
	}
	return out
}

func capPerConnection(items []WorkItem, max int) []WorkItem {
	out := make([]WorkItem, 0, len(items))
	counts := map[string]int{}
	for _, it := range items {
		if counts[it.ConnectionID] >= max {
			continue
		}
		counts[it.ConnectionID]++
		out = append(out, it)
	}
	return out
}

func validateItems(items []SourceItem) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ConnectionID) == "" {
			return fmt.Errorf("%w: item with empty connection id (chunk %d)", ErrInvalidSource, it.ChunkID)
		}
		key := it.ItemID()
		if seen[key] {
			return fmt.Errorf("%w: duplicate item %s", ErrInvalidSource, key)
		}
		seen[key] = true
	}
	return nil
}

func indexAssignments(rows []Assignment) (map[string]Assignment, error) {
	out := make(map[string]Assignment, len(rows))
	for _, a := range rows {
		if strings.TrimSpace(a.ConnectionID) == "" {
			return nil, fmt.Errorf("%w: assignment with empty connection id", ErrInvalidSource)
		}
		if _, dup := out[a.ConnectionID]; dup {
			return nil, fmt.Errorf("%w: connection %s assigned twice", ErrInvalidSource, a.ConnectionID)
		}
		out[a.ConnectionID] = a
	}
	return out, nil
}

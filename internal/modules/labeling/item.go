package labeling

import (
	"sort"
	"strconv"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

// ItemID derives the annotation key of a chunk.
func ItemID(connectionID string, chunkID int) string {
	return connectionID + "_chunk_" + strconv.Itoa(chunkID)
}

// SourceItem is one row of the call data feed.
type SourceItem struct {
	ConnectionID      string `json:"connection_id"`
	ChunkID           int    `json:"chunk_id"`
	Text              string `json:"text"`
	FullText          string `json:"full_text"`
	DefaultIntents    string `json:"default_intents"`
	DefaultSubIntents string `json:"default_sub_intents"`
}

func (s SourceItem) ItemID() string { return ItemID(s.ConnectionID, s.ChunkID) }

type Assignment struct {
	ConnectionID string `json:"connection_id"`
	Annotator    string `json:"annotator"`
	Reviewer     string `json:"reviewer"`
}

type WorkItem struct {
	SourceItem
	Annotator string `json:"annotator"`
	Reviewer  string `json:"reviewer"`
	// AnnotatorRecord is the latest annotator submission; set on review worklists only.
	AnnotatorRecord *domlabel.AnnotationRecord `json:"annotator_record,omitempty"`
}

type Worklist []WorkItem

func (w Worklist) Len() int { return len(w) }

// At returns the item at i, or nil when i is out of range.
func (w Worklist) At(i int) *WorkItem {
	if i < 0 || i >= len(w) {
		return nil
	}
	return &w[i]
}

// ConnectionIDs lists distinct connection ids in worklist order.
func (w Worklist) ConnectionIDs() []string {
	out := []string{}
	seen := map[string]bool{}
	for _, it := range w {
		if seen[it.ConnectionID] {
			continue
		}
		seen[it.ConnectionID] = true
		out = append(out, it.ConnectionID)
	}
	return out
}

// ChunkIDs lists the chunk ids of one connection in worklist order.
func (w Worklist) ChunkIDs(connectionID string) []int {
	out := []int{}
	for _, it := range w {
		if it.ConnectionID == connectionID {
			out = append(out, it.ChunkID)
		}
	}
	return out
}

func (w Worklist) IndexOfConnection(connectionID string) int {
	for i, it := range w {
		if it.ConnectionID == connectionID {
			return i
		}
	}
	return -1
}

func (w Worklist) IndexOfChunk(connectionID string, chunkID int) int {
	for i, it := range w {
		if it.ConnectionID == connectionID && it.ChunkID == chunkID {
			return i
		}
	}
	return -1
}

func sortWorkItems(items []WorkItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ConnectionID != items[j].ConnectionID {
			return items[i].ConnectionID < items[j].ConnectionID
		}
		return items[i].ChunkID < items[j].ChunkID
	})
}

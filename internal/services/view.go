package services

import (
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
)

// View is what the client renders after every action.
type View struct {
	Status            labeling.Status    `json:"status"`
	Username          string             `json:"username"`
	DisplayName       string             `json:"display_name"`
	Role              domlabel.Role      `json:"role"`
	Position          int                `json:"position"`
	Total             int                `json:"total"`
	Completed         int                `json:"completed"`
	Reset             bool               `json:"reset"`
	Item              *ItemView          `json:"item,omitempty"`
	Defaults          *labeling.Defaults `json:"defaults,omitempty"`
	ConfidenceOptions []string           `json:"confidence_options"`
	ConfidenceFilter  *bool              `json:"confidence_filter,omitempty"`
	Jump              *JumpOptions       `json:"jump,omitempty"`
}

type ItemView struct {
	ItemID          string                     `json:"item_id"`
	ConnectionID    string                     `json:"connection_id"`
	ChunkID         int                        `json:"chunk_id"`
	Text            string                     `json:"text"`
	FullText        string                     `json:"full_text"`
	AnnotatorRecord *domlabel.AnnotationRecord `json:"annotator_record,omitempty"`
}

type JumpOptions struct {
	ConnectionIDs []string `json:"connection_ids"`
	ChunkIDs      []int    `json:"chunk_ids"`
}

func confidenceOptions() []string {
	out := make([]string, 0, len(domlabel.ConfidenceLevels))
	for _, c := range domlabel.ConfidenceLevels {
		out = append(out, string(c))
	}
	return out
}

func newItemView(it *labeling.WorkItem) *ItemView {
	if it == nil {
		return nil
	}
	return &ItemView{
		ItemID:          it.ItemID(),
		ConnectionID:    it.ConnectionID,
		ChunkID:         it.ChunkID,
		Text:            it.Text,
		FullText:        it.FullText,
		AnnotatorRecord: it.AnnotatorRecord,
	}
}

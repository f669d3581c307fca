package labeling

import (
	"time"

	"gorm.io/datatypes"
)

// SessionStateRow is the SQL form of SessionState.
type SessionStateRow struct {
	SessionID        string         `gorm:"primaryKey;column:session_id" json:"session_id"`
	Username         string         `gorm:"column:username;not null;index" json:"username"`
	DisplayName      string         `gorm:"column:display_name" json:"display_name"`
	Role             string         `gorm:"column:role;not null" json:"role"`
	CurrentIndex     int            `gorm:"column:current_index;not null;default:0" json:"current_index"`
	CompletedIndices datatypes.JSON `gorm:"column:completed_indices;type:json" json:"completed_indices"`
	WorklistLength   int            `gorm:"column:worklist_length;not null;default:0" json:"worklist_length"`
	Done             bool           `gorm:"column:done;not null" json:"done"`
	ConfidenceFilter bool           `gorm:"column:confidence_filter;not null" json:"confidence_filter"`
	HistoryVersion   uint64         `gorm:"column:history_version;not null;default:0" json:"history_version"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (SessionStateRow) TableName() string { return "labeling_session_state" }

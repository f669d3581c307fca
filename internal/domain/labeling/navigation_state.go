package labeling

import "time"

// NavigationState is the per-session cursor over a worklist.
type NavigationState struct {
	CurrentIndex     int          `json:"current_index"`
	CompletedIndices map[int]bool `json:"completed_indices,omitempty"`
	WorklistLength   int          `json:"worklist_length"`
	Done             bool         `json:"done"`
}

func NewNavigationState(length int) NavigationState {
	return NavigationState{
		CurrentIndex:     0,
		CompletedIndices: map[int]bool{},
		WorklistLength:   length,
	}
}

func (s NavigationState) CompletedCount() int {
	n := 0
	for _, ok := range s.CompletedIndices {
		if ok {
			n++
		}
	}
	return n
}

// SessionState wraps navigation with the identity and settings of one login.
type SessionState struct {
	SessionID        string          `json:"session_id"`
	Username         string          `json:"username"`
	DisplayName      string          `json:"display_name"`
	Role             Role            `json:"role"`
	Navigation       NavigationState `json:"navigation"`
	ConfidenceFilter bool            `json:"confidence_filter"`
	HistoryVersion   uint64          `json:"history_version"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

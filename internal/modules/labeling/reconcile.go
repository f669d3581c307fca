package labeling

import (
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

// Reconcile resets the navigation state when the freshly built worklist length differs from the stored one.
// It reports whether a reset happened.
func Reconcile(state *domlabel.NavigationState, freshLength int) bool {
	if state.WorklistLength == freshLength && indexInRange(state, freshLength) {
		if state.CompletedIndices == nil {
			state.CompletedIndices = map[int]bool{}
		}
		return false
	}
	*state = domlabel.NewNavigationState(freshLength)
	return true
}

func indexInRange(state *domlabel.NavigationState, n int) bool {
	if n == 0 {
		return state.CurrentIndex == 0
	}
	if state.CurrentIndex < 0 || state.CurrentIndex >= n {
		return false
	}
	for i, ok := range state.CompletedIndices {
		if ok && (i < 0 || i >= n) {
			return false
		}
	}
	return true
}

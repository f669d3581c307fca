package labeling

import (
	"testing"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
)

func TestReconcileResetsOnLengthChange(t *testing.T) {
	st := domlabel.NewNavigationState(10)
	st.CurrentIndex = 6
	st.CompletedIndices[2] = true
	st.CompletedIndices[6] = true
	if !Reconcile(&st, 7) {
		t.Fatalf("expected reset")
	}
	if st.CurrentIndex != 0 || len(st.CompletedIndices) != 0 || st.WorklistLength != 7 || st.Done {
		t.Fatalf("state not reset: %+v", st)
	}
}

func TestReconcileKeepsStateWhenLengthMatches(t *testing.T) {
	st := domlabel.NewNavigationState(4)
	st.CurrentIndex = 3
	st.CompletedIndices[1] = true
	if Reconcile(&st, 4) {
		t.Fatalf("unexpected reset")
	}
	if st.CurrentIndex != 3 || !st.CompletedIndices[1] {
		t.Fatalf("state changed: %+v", st)
	}
}

func TestReconcileRepairsOutOfRangeState(t *testing.T) {
	st := domlabel.NavigationState{CurrentIndex: 9, WorklistLength: 3}
	if !Reconcile(&st, 3) || st.CurrentIndex != 0 {
		t.Fatalf("expected repair, got %+v", st)
	}
}

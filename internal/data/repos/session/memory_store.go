package session

import (
	"fmt"
	"sync"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
)

// MemoryStore keeps sessions in process memory. Sessions do not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*domlabel.SessionState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]*domlabel.SessionState{}}
}

func (s *MemoryStore) Get(_ dbctx.Context, sessionID string) (*domlabel.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.data[sessionID]), nil
}

func (s *MemoryStore) Save(_ dbctx.Context, st *domlabel.SessionState) error {
	if st == nil || st.SessionID == "" {
		return fmt.Errorf("save session: missing session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[st.SessionID] = cloneState(st)
	return nil
}

func (s *MemoryStore) Delete(_ dbctx.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

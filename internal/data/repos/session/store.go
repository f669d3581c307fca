package session

import (
	"fmt"
	"strings"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendDB     = "db"
)

// Store persists per-session labeling state. Get returns (nil, nil) for unknown sessions.
type Store interface {
	Get(dbc dbctx.Context, sessionID string) (*domlabel.SessionState, error)
	Save(dbc dbctx.Context, st *domlabel.SessionState) error
	Delete(dbc dbctx.Context, sessionID string) error
}

func ParseBackend(raw string) (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(raw)); b {
	case "", BackendMemory:
		return BackendMemory, nil
	case BackendRedis, BackendDB:
		return b, nil
	case "sql", "gorm":
		return BackendDB, nil
	default:
		return "", fmt.Errorf("unsupported session backend %q", raw)
	}
}

func cloneState(st *domlabel.SessionState) *domlabel.SessionState {
	if st == nil {
		return nil
	}
	cp := *st
	cp.Navigation.CompletedIndices = make(map[int]bool, len(st.Navigation.CompletedIndices))
	for k, v := range st.Navigation.CompletedIndices {
		if v {
			cp.Navigation.CompletedIndices[k] = true
		}
	}
	return &cp
}

package services

import (
	"fmt"
	"sync"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/modules/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

// HistoryCache is the process-wide annotation snapshot worklists are built from.
// Saves do not refresh it, so a session's worklist keeps its shape until the
// snapshot is invalidated by login, logout, refresh or a source reload.
type HistoryCache struct {
	store labeling.AnnotationStore
	log   *logger.Logger

	mu      sync.Mutex
	rows    []domlabel.AnnotationRecord
	version uint64
	loaded  bool
}

func NewHistoryCache(store labeling.AnnotationStore, baseLog *logger.Logger) *HistoryCache {
	return &HistoryCache{store: store, log: baseLog.With("service", "HistoryCache"), version: 1}
}

// Snapshot returns the cached rows and the generation they belong to, loading them when needed.
func (h *HistoryCache) Snapshot(dbc dbctx.Context) ([]domlabel.AnnotationRecord, uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.loaded {
		rows, err := h.store.QueryAll(dbc)
		if err != nil {
			return nil, 0, fmt.Errorf("load annotation history: %w", err)
		}
		h.rows = rows
		h.loaded = true
		h.log.Debug("Annotation history loaded", "rows", len(rows), "version", h.version)
	}
	return h.rows, h.version, nil
}

func (h *HistoryCache) Invalidate(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaded = false
	h.rows = nil
	h.version++
	h.log.Debug("Annotation history invalidated", "reason", reason, "version", h.version)
}

func (h *HistoryCache) Version() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.version
}

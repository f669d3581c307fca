package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/data/source"
	"github.com/yungbote/labelbridge-backend/internal/http/response"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
)

// SourceReloader is the part of the source catalog the admin endpoints use.
type SourceReloader interface {
	Reload(ctx context.Context) error
	Current() (*source.Dataset, uint64)
}

type AdminHandler struct {
	log     *logger.Logger
	catalog SourceReloader
}

func NewAdminHandler(log *logger.Logger, catalog SourceReloader) *AdminHandler {
	return &AdminHandler{log: log.With("handler", "AdminHandler"), catalog: catalog}
}

func (h *AdminHandler) ReloadSources(c *gin.Context) {
	if err := h.catalog.Reload(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err, "reload_failed")
		return
	}
	ds, version := h.catalog.Current()
	h.log.Info("Sources reloaded by admin", "version", version)
	response.RespondOK(c, gin.H{
		"version":     version,
		"items":       len(ds.Items),
		"intents":     len(ds.Taxonomy.Intents),
		"assignments": len(ds.Assignments),
		"loaded_at":   ds.LoadedAt,
	})
}

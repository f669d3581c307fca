package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/http/response"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

// WorklistHandler exposes the navigation actions of the caller's session.
type WorklistHandler struct {
	labeling services.LabelingService
}

func NewWorklistHandler(labeling services.LabelingService) *WorklistHandler {
	return &WorklistHandler{labeling: labeling}
}

func (h *WorklistHandler) respond(c *gin.Context, fallback string, fn func(ctx context.Context) (*services.View, error)) {
	view, err := fn(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, fallback)
		return
	}
	response.RespondOK(c, view)
}

func (h *WorklistHandler) Current(c *gin.Context) {
	h.respond(c, "worklist_failed", h.labeling.Current)
}

func (h *WorklistHandler) Next(c *gin.Context) {
	h.respond(c, "worklist_failed", h.labeling.Next)
}

func (h *WorklistHandler) Previous(c *gin.Context) {
	h.respond(c, "worklist_failed", h.labeling.Previous)
}

func (h *WorklistHandler) Refresh(c *gin.Context) {
	h.respond(c, "worklist_failed", h.labeling.Refresh)
}

func (h *WorklistHandler) SaveNext(c *gin.Context) {
	var req services.SaveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.respond(c, "save_failed", func(ctx context.Context) (*services.View, error) {
		return h.labeling.SaveAndNext(ctx, req)
	})
}

func (h *WorklistHandler) Jump(c *gin.Context) {
	var req services.JumpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.respond(c, "worklist_failed", func(ctx context.Context) (*services.View, error) {
		return h.labeling.Jump(ctx, req)
	})
}

func (h *WorklistHandler) UpdateSettings(c *gin.Context) {
	var req services.SettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.respond(c, "worklist_failed", func(ctx context.Context) (*services.View, error) {
		return h.labeling.UpdateSettings(ctx, req)
	})
}

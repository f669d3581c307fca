package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/http/response"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

const maxAnnotationPage = 5000

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// AnnotationHandler serves the annotation table, newest first.
type AnnotationHandler struct {
	labeling services.LabelingService
}

func NewAnnotationHandler(labeling services.LabelingService) *AnnotationHandler {
	return &AnnotationHandler{labeling: labeling}
}

func (h *AnnotationHandler) List(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", errInvalidLimit)
			return
		}
		limit = n
	}
	if limit == 0 || limit > maxAnnotationPage {
		limit = maxAnnotationPage
	}
	rows, err := h.labeling.ListAnnotations(c.Request.Context(), services.ListAnnotationsInput{
		CallID:   strings.TrimSpace(c.Query("call_id")),
		Username: strings.TrimSpace(c.Query("username")),
		Limit:    limit,
	})
	if err != nil {
		response.RespondAPIError(c, err, "annotations_failed")
		return
	}
	response.RespondOK(c, gin.H{"annotations": rows, "count": len(rows)})
}

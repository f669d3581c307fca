package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/http/response"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

type TaxonomyHandler struct {
	labeling services.LabelingService
}

func NewTaxonomyHandler(labeling services.LabelingService) *TaxonomyHandler {
	return &TaxonomyHandler{labeling: labeling}
}

func (h *TaxonomyHandler) Get(c *gin.Context) {
	response.RespondOK(c, h.labeling.Taxonomy(c.Request.Context()))
}

// SubIntents lists the sub-intents valid for ?intent=a&intent=b (or intent=a,b).
func (h *TaxonomyHandler) SubIntents(c *gin.Context) {
	var selected []string
	for _, raw := range c.QueryArray("intent") {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				selected = append(selected, p)
			}
		}
	}
	tax := h.labeling.Taxonomy(c.Request.Context())
	response.RespondOK(c, gin.H{
		"intents":     selected,
		"sub_intents": tax.ValidSubIntents(selected),
	})
}

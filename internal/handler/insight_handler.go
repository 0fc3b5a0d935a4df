package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docdesk/internal/domain"
	"docdesk/internal/service"
)

// InsightHandler handles reconciliation, validation, usage and sample listing endpoints.
type InsightHandler struct {
	insights service.InsightService
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(insights service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// ITC handles GET /api/v1/reconcile/itc?gstr2b=&gstr3b=
func (h *InsightHandler) ITC(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	gstr2b, gstr3b := c.Query("gstr2b"), c.Query("gstr3b")
	if gstr2b == "" || gstr3b == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "gstr2b and gstr3b job ids are required")
		return
	}

	res, err := h.insights.ITC(c.Request.Context(), cc, gstr2b, gstr3b)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// Validate handles GET /api/v1/validate/:doc_type/:job_id
func (h *InsightHandler) Validate(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	report, err := h.insights.Validate(c.Request.Context(), cc, domain.ValidationDocType(c.Param("doc_type")), c.Param("job_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, report)
}

// Usage handles GET /api/v1/usage
func (h *InsightHandler) Usage(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	usage, err := h.insights.Usage(c.Request.Context(), cc)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, usage)
}

// Samples handles GET /api/v1/samples
func (h *InsightHandler) Samples(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	samples, err := h.insights.Samples(c.Request.Context(), cc)
	if err != nil {
		HandleError(c, err)
		return
	}
	if samples == nil {
		samples = []domain.Sample{}
	}
	RespondOK(c, samples)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docdesk/internal/domain"
	"docdesk/internal/port"
	"docdesk/internal/service"
)

// ExportHandler hands service-rendered exports and samples to the download sink.
type ExportHandler struct {
	exports service.ExportService
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exports service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type exportRequest struct {
	JobID     string                 `json:"job_id" binding:"required"`
	Format    domain.JobExportFormat `json:"format"`
	ReconKind domain.ReconExportKind `json:"recon_kind"`
}

// Download handles POST /api/v1/exports
func (h *ExportHandler) Download(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "job_id is required")
		return
	}

	out, err := h.exports.Download(c.Request.Context(), cc, port.ExportRequest{
		JobID:     req.JobID,
		Format:    req.Format,
		ReconKind: req.ReconKind,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, out)
}

// DownloadSample handles POST /api/v1/samples/:filename/download
func (h *ExportHandler) DownloadSample(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	out, err := h.exports.DownloadSample(c.Request.Context(), cc, c.Param("filename"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, out)
}

package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docdesk/internal/domain"
	"docdesk/internal/render"
	"docdesk/internal/service"
)

// BatchHandler handles bulk submission endpoints.
type BatchHandler struct {
	batches service.BatchLifecycle
	handles *handles[domain.Batch]
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batches service.BatchLifecycle) *BatchHandler {
	return &BatchHandler{batches: batches, handles: newHandles[domain.Batch]()}
}

type exportBatchRequest struct {
	Format domain.BatchExportFormat `json:"format"`
}

// Submit handles POST /api/v1/batches
// Expects one or more "files" parts plus optional name, client_id and doc_type fields.
func (h *BatchHandler) Submit(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "at least one files field is required")
		return
	}

	headers := form.File["files"]
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	input := service.SubmitBatchInput{
		Name:     c.PostForm("name"),
		ClientID: c.PostForm("client_id"),
		DocType:  c.PostForm("doc_type"),
	}
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read "+fh.Filename)
			return
		}
		opened = append(opened, f)
		input.Files = append(input.Files, service.BatchFileInput{Filename: fh.Filename, Content: f})
	}

	batch, err := h.batches.Submit(c.Request.Context(), cc, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	hnd := h.batches.Poll(pollContext(c), cc, batch.ID, service.PollOptions{})
	h.handles.put(hnd)
	loading, _ := pollState(hnd)
	RespondCreated(c, BatchState{Batch: batch, CompletionPercent: render.CompletionPercent(batch.Progress), Loading: loading})
}

// Get handles GET /api/v1/batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	hnd := h.handles.get(id)
	if hnd == nil {
		hnd = h.batches.Poll(pollContext(c), cc, id, service.PollOptions{})
		h.handles.put(hnd)
	}

	batch := h.batches.LoadCached(c.Request.Context(), cc, id)
	if batch == nil {
		batch = hnd.Snapshot()
	}
	loading, msg := pollState(hnd)
	st := BatchState{Batch: batch, Loading: loading, Error: msg}
	if batch != nil {
		st.CompletionPercent = render.CompletionPercent(batch.Progress)
	}
	RespondOK(c, st)
}

// Watch handles POST /api/v1/batches/:id/watch
// Restarts polling for a batch whose previous poll ended.
func (h *BatchHandler) Watch(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	hnd := h.batches.Poll(pollContext(c), cc, id, service.PollOptions{})
	h.handles.put(hnd)
	loading, msg := pollState(hnd)
	RespondAccepted(c, BatchState{Batch: hnd.Snapshot(), Loading: loading, Error: msg})
}

// Release handles DELETE /api/v1/batches/:id/track
func (h *BatchHandler) Release(c *gin.Context) {
	id := c.Param("id")
	h.batches.Release(id)
	h.handles.drop(id)
	RespondOK(c, gin.H{"batch_id": id, "tracking": false})
}

// Export handles POST /api/v1/batches/:id/export
func (h *BatchHandler) Export(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	var req exportBatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
			return
		}
	}

	out, err := h.batches.Export(c.Request.Context(), cc, c.Param("id"), req.Format)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, out)
}

// Workbook handles GET /api/v1/batches/:id/workbook
// Renders the cached snapshot as a spreadsheet.
func (h *BatchHandler) Workbook(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	batch := h.batches.LoadCached(c.Request.Context(), cc, c.Param("id"))
	if batch == nil {
		HandleError(c, domain.ErrNotFound)
		return
	}

	var buf bytes.Buffer
	if err := render.WriteBatchWorkbook(&buf, batch); err != nil {
		HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+render.BatchWorkbookName(batch)+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

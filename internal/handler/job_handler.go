package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docdesk/internal/csvexport"
	"docdesk/internal/domain"
	"docdesk/internal/recon"
	"docdesk/internal/service"
)

// JobHandler handles single-document job endpoints.
type JobHandler struct {
	jobs    service.JobLifecycle
	handles *handles[domain.Job]
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobs service.JobLifecycle) *JobHandler {
	return &JobHandler{jobs: jobs, handles: newHandles[domain.Job]()}
}

// pollContext detaches poll loops from the request that started them; they end on their own
// attempt budget or when released.
func pollContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// List handles GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	list, err := h.jobs.ListJobs(c.Request.Context(), cc, limit)
	if err != nil && list == nil {
		HandleError(c, err)
		return
	}
	if list.EnvironmentMismatch {
		h.handles.clear()
	}
	RespondOK(c, JobListState{JobList: list, Error: ErrorMessage(err)})
}

// Submit handles POST /api/v1/jobs
func (h *JobHandler) Submit(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	job, err := h.jobs.Submit(c.Request.Context(), cc, service.SubmitJobInput{
		Filename:    header.Filename,
		Content:     file,
		DocTypeHint: c.PostForm("doc_type"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	_, hnd := h.jobs.Select(pollContext(c), cc, job.ID)
	h.handles.put(hnd)
	loading, _ := pollState(hnd)
	RespondCreated(c, JobState{Job: job, Loading: loading})
}

// Get handles GET /api/v1/jobs/:id
// Returns the cached snapshot and the poll state. A job that is not being polled, or whose
// poll was stopped by selecting another job, gets a poll started; a poll that ended on its own
// is only restarted through Select.
func (h *JobHandler) Get(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	hnd := h.handles.get(id)
	if hnd == nil || h.stopped(hnd) {
		hnd = h.jobs.Poll(pollContext(c), cc, id, service.PollOptions{})
		h.handles.put(hnd)
	}
	RespondOK(c, h.state(c.Request.Context(), cc, id, hnd))
}

// stopped reports whether hnd was canceled rather than ending on a result or an error.
func (h *JobHandler) stopped(hnd *service.PollHandle[domain.Job]) bool {
	if h.jobs.Tracking(hnd.ID()) {
		return false
	}
	return hnd.Active() || errors.Is(hnd.Err(), domain.ErrPollCanceled)
}

// Select handles POST /api/v1/jobs/:id/select
func (h *JobHandler) Select(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	view, hnd := h.jobs.Select(pollContext(c), cc, id)
	h.handles.put(hnd)

	loading, msg := pollState(hnd)
	RespondOK(c, JobState{Job: view.Job, Reconciliations: view.Reconciliations, Loading: loading, Error: msg})
}

// Resume handles POST /api/v1/jobs/resume
func (h *JobHandler) Resume(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	view, hnd := h.jobs.Resume(pollContext(c), cc)
	if view == nil {
		RespondOK(c, JobState{})
		return
	}
	h.handles.put(hnd)
	loading, msg := pollState(hnd)
	RespondOK(c, JobState{Job: view.Job, Reconciliations: view.Reconciliations, Loading: loading, Error: msg})
}

// Release handles DELETE /api/v1/jobs/:id/track
func (h *JobHandler) Release(c *gin.Context) {
	id := c.Param("id")
	h.jobs.Release(id)
	h.handles.drop(id)
	RespondOK(c, gin.H{"job_id": id, "tracking": false})
}

// ExportCSV handles GET /api/v1/jobs/export/csv
// Writes the cached job list; nothing is fetched from the parsing service.
func (h *JobHandler) ExportCSV(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	jobs, _ := cc.Cache.LoadJobList(c.Request.Context())

	var buf bytes.Buffer
	if err := csvexport.WriteAll(&buf, jobs); err != nil {
		HandleError(c, err)
		return
	}
	filename := csvexport.BuildFilename("jobs", time.Now().UTC())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *JobHandler) state(ctx context.Context, cc *service.ClientContext, id string, hnd *service.PollHandle[domain.Job]) JobState {
	job := h.jobs.LoadCached(ctx, cc, id)
	if job == nil && hnd != nil {
		job = hnd.Snapshot()
	}
	loading, msg := pollState(hnd)
	st := JobState{Job: job, Loading: loading, Error: msg}
	if job != nil {
		st.Reconciliations = recon.FromMeta(job.Meta)
	}
	return st
}

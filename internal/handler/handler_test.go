package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docdesk/internal/cache"
	"docdesk/internal/credential"
	"docdesk/internal/domain"
	"docdesk/internal/handler"
	"docdesk/internal/middleware"
	"docdesk/internal/port"
	"docdesk/internal/router"
	"docdesk/internal/service"
	"docdesk/internal/store/memory"
	"docdesk/mocks"
)

type fixture struct {
	api    *mocks.MockDocParserAPI
	sink   *mocks.MockDownloadSink
	base   service.ClientContext
	engine *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := new(mocks.MockDocParserAPI)
	sink := new(mocks.MockDownloadSink)
	base := service.ClientContext{
		Credentials: credential.NewProvider(memory.NewStore(), "dev_123", domain.AuthHeaderBearer),
		Cache:       cache.New(memory.NewStore()),
		Notices:     service.NewNoticeBoard(),
	}

	batches := service.NewBatchLifecycle(api, sink, nil)
	jobs := service.NewJobLifecycle(api, 10, batches)
	jobH := handler.NewJobHandler(jobs)
	h := router.Handlers{
		Session: handler.NewSessionHandler(jobs, batches, "session-1", nil),
		Jobs:    jobH,
		Batches: handler.NewBatchHandler(batches),
		Exports: handler.NewExportHandler(service.NewExportService(api, sink)),
		Insight: handler.NewInsightHandler(service.NewInsightService(api)),
		Keys:    handler.NewKeyHandler(service.NewKeyService(api)),
		Health:  handler.NewHealthHandler(nil),
	}
	engine := router.Setup(base, h, router.Options{
		Environment: middleware.EnvironmentOptions{ConfiguredBase: "http://parser.test"},
	})
	t.Cleanup(func() {
		jobs.StopAll()
		batches.StopAll()
	})
	return &fixture{api: api, sink: sink, base: base, engine: engine}
}

func (f *fixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) doJSON(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, bytes.NewBufferString(body), "application/json")
}

// decodeData unwraps the response envelope into dst and returns it.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) handler.APIResponse {
	t.Helper()
	var env struct {
		handler.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if dst != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env.APIResponse
}

func multipartBody(t *testing.T, field string, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, _ = part.Write([]byte(content))
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func strPtr(s string) *string { return &s }

// --- Jobs ---

func TestJobHandler_Submit_PollsUntilTerminal(t *testing.T) {
	f := newFixture(t)

	f.api.On("SubmitJob", mock.Anything, mock.MatchedBy(func(ep domain.Endpoint) bool {
		return ep.BaseURL == "http://parser.test"
	}), mock.Anything).Return(&domain.Job{ID: "j1", Status: domain.JobStatusQueued}, nil).Once()
	f.api.On("GetJob", mock.Anything, mock.Anything, "j1").
		Return(&domain.Job{ID: "j1", Status: domain.JobStatusSucceeded, Filename: strPtr("inv.pdf")}, nil)

	body, ct := multipartBody(t, "file", map[string]string{"inv.pdf": "%PDF-1.4"}, map[string]string{"doc_type": "invoice"})
	w := f.do(http.MethodPost, "/api/v1/jobs", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)

	var created handler.JobState
	resp := decodeData(t, w, &created)
	assert.True(t, resp.Success)
	assert.Equal(t, "j1", created.Job.ID)

	require.Eventually(t, func() bool {
		var st handler.JobState
		decodeData(t, f.do(http.MethodGet, "/api/v1/jobs/j1", nil, ""), &st)
		return !st.Loading && st.Job != nil && st.Job.Status == domain.JobStatusSucceeded
	}, 5*time.Second, 10*time.Millisecond)
}

func TestJobHandler_Submit_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		f := newFixture(t)
		w := f.do(http.MethodPost, "/api/v1/jobs", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported type", func(t *testing.T) {
		f := newFixture(t)
		body, ct := multipartBody(t, "file", map[string]string{"notes.txt": "hello"}, nil)
		w := f.do(http.MethodPost, "/api/v1/jobs", body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeData(t, w, nil)
		assert.Equal(t, "UNSUPPORTED_FILE_TYPE", resp.Error.Code)
		f.api.AssertNotCalled(t, "SubmitJob", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("service rejects", func(t *testing.T) {
		f := newFixture(t)
		f.api.On("SubmitJob", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &domain.HTTPError{Status: 413, Detail: "File too large"})

		body, ct := multipartBody(t, "file", map[string]string{"big.pdf": "%PDF"}, nil)
		w := f.do(http.MethodPost, "/api/v1/jobs", body, ct)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		resp := decodeData(t, w, nil)
		assert.Equal(t, "SUBMISSION_FAILED", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "File too large")
	})
}

func TestJobHandler_Get_NotFoundReportsError(t *testing.T) {
	f := newFixture(t)
	f.base.Cache.StoreJob(context.Background(), &domain.Job{ID: "gone", Status: domain.JobStatusProcessing})
	f.api.On("GetJob", mock.Anything, mock.Anything, "gone").Return(nil, &domain.HTTPError{Status: 404})

	require.Eventually(t, func() bool {
		var st handler.JobState
		decodeData(t, f.do(http.MethodGet, "/api/v1/jobs/gone", nil, ""), &st)
		return !st.Loading && st.Job == nil && st.Error == "resource not found"
	}, 5*time.Second, 10*time.Millisecond)

	notices := f.base.Notices.List()
	require.Len(t, notices, 1)
	assert.Equal(t, domain.NoticeJobNotFound, notices[0].Kind)
}

func TestJobHandler_Get_RestartsPollStoppedBySelection(t *testing.T) {
	f := newFixture(t)
	f.base.Cache.StoreJob(context.Background(), &domain.Job{ID: "a", Status: domain.JobStatusProcessing})

	var fetchesA atomic.Int32
	f.api.On("GetJob", mock.Anything, mock.Anything, "a").
		Run(func(mock.Arguments) { fetchesA.Add(1) }).
		Return(&domain.Job{ID: "a", Status: domain.JobStatusProcessing}, nil)
	f.api.On("GetJob", mock.Anything, mock.Anything, "b").Return(&domain.Job{ID: "b", Status: domain.JobStatusProcessing}, nil)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/jobs/a/select", nil, "").Code)
	require.Eventually(t, func() bool { return fetchesA.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/jobs/b/select", nil, "").Code)

	var st handler.JobState
	decodeData(t, f.do(http.MethodGet, "/api/v1/jobs/a", nil, ""), &st)
	assert.True(t, st.Loading, "a job left by selection is polled again when viewed")
	assert.Empty(t, st.Error)
	require.NotNil(t, st.Job)
	assert.Equal(t, domain.JobStatusProcessing, st.Job.Status)
	require.Eventually(t, func() bool { return fetchesA.Load() == 2 }, 5*time.Second, 10*time.Millisecond)
}

func TestJobHandler_Get_TerminalCacheNeedsNoRequest(t *testing.T) {
	f := newFixture(t)
	f.base.Cache.StoreJob(context.Background(), &domain.Job{
		ID:     "done",
		Status: domain.JobStatusSucceeded,
		Meta:   json.RawMessage(`{"reconciliations":{"sales_vs_gstr1":null}}`),
	})

	var st handler.JobState
	w := f.do(http.MethodGet, "/api/v1/jobs/done", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &st)

	assert.False(t, st.Loading)
	assert.Equal(t, domain.JobStatusSucceeded, st.Job.Status)
	assert.Len(t, st.Reconciliations, 1)
	f.api.AssertNotCalled(t, "GetJob", mock.Anything, mock.Anything, mock.Anything)
}

func TestJobHandler_List(t *testing.T) {
	t.Run("environment mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.base.Cache.StoreJobList(context.Background(), []domain.Job{{ID: "old", Status: domain.JobStatusSucceeded}})
		f.api.On("ListJobs", mock.Anything, mock.Anything, 10).Return([]domain.Job{}, nil)

		var list handler.JobListState
		w := f.do(http.MethodGet, "/api/v1/jobs", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &list)

		assert.True(t, list.EnvironmentMismatch)
		assert.Empty(t, list.Jobs)
		require.Len(t, f.base.Notices.List(), 1)
		assert.Equal(t, domain.NoticeEnvironmentMismatch, f.base.Notices.List()[0].Kind)
	})

	t.Run("failure serves cache", func(t *testing.T) {
		f := newFixture(t)
		f.base.Cache.StoreJobList(context.Background(), []domain.Job{{ID: "j1", Status: domain.JobStatusQueued}})
		f.api.On("ListJobs", mock.Anything, mock.Anything, 5).
			Return(nil, &domain.TransportError{Op: "ListJobs", Err: errors.New("connection refused")})

		var list handler.JobListState
		w := f.do(http.MethodGet, "/api/v1/jobs?limit=5", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		decodeData(t, w, &list)

		assert.True(t, list.FromCache)
		require.Len(t, list.Jobs, 1)
		assert.Equal(t, "the parsing service could not be reached", list.Error)
	})
}

func TestJobHandler_ExportCSV(t *testing.T) {
	f := newFixture(t)
	f.base.Cache.StoreJobList(context.Background(), []domain.Job{{ID: "j1", Status: domain.JobStatusQueued}})

	w := f.do(http.MethodGet, "/api/v1/jobs/export/csv", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "jobs_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, w.Body.String(), "j1,,queued")
}

// --- Batches ---

func TestBatchHandler_Submit(t *testing.T) {
	f := newFixture(t)
	batch := &domain.Batch{ID: "b1", Status: domain.BatchStatusCompleted, Progress: domain.Progress{Total: 2, Completed: 2}}
	f.api.On("SubmitBatch", mock.Anything, mock.Anything, mock.MatchedBy(func(in port.BatchSubmitInput) bool {
		return len(in.Files) == 2 && in.Name == "April"
	})).Return(batch, nil).Once()
	f.api.On("GetBatch", mock.Anything, mock.Anything, "b1").Return(batch, nil).Maybe()

	body, ct := multipartBody(t, "files", map[string]string{"a.pdf": "%PDF", "b.csv": "x,y"}, map[string]string{"name": "April"})
	w := f.do(http.MethodPost, "/api/v1/batches", body, ct)
	require.Equal(t, http.StatusCreated, w.Code)

	var st handler.BatchState
	decodeData(t, w, &st)
	assert.Equal(t, "b1", st.Batch.ID)
	assert.Equal(t, 100, st.CompletionPercent)
}

func TestBatchHandler_Submit_NoFiles(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, "files", nil, map[string]string{"name": "empty"})
	w := f.do(http.MethodPost, "/api/v1/batches", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchHandler_Workbook(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/batches/b9/workbook", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.base.Cache.StoreBatch(context.Background(), &domain.Batch{ID: "b9", Name: strPtr("April"), Status: domain.BatchStatusProcessing})
	w = f.do(http.MethodGet, "/api/v1/batches/b9/workbook", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "batch_April_progress.xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestBatchHandler_Export(t *testing.T) {
	f := newFixture(t)
	f.api.On("ExportBatch", mock.Anything, mock.Anything, "b1", domain.BatchExportTallyXML).
		Return(&domain.ExportFile{Filename: "b1.xml", ContentType: "application/xml", Content: []byte("<x/>")}, nil)
	f.sink.On("Save", mock.Anything, mock.Anything).Return(&port.SaveOutput{Location: "downloads/b1.xml"}, nil)

	w := f.doJSON(http.MethodPost, "/api/v1/batches/b1/export", `{"format":"tally_xml"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Location string `json:"location"`
	}
	decodeData(t, w, &out)
	assert.Equal(t, "downloads/b1.xml", out.Location)
}

// --- Session ---

func TestSessionHandler_CredentialFlow(t *testing.T) {
	f := newFixture(t)

	var info handler.SessionInfo
	decodeData(t, f.do(http.MethodGet, "/api/v1/session", nil, ""), &info)
	assert.Equal(t, "session-1", info.SessionID)
	assert.Equal(t, "http://parser.test", info.BaseURL)
	assert.Equal(t, domain.ModeNormal, info.Mode)
	assert.False(t, info.HasAPIKey)

	w := f.doJSON(http.MethodPut, "/api/v1/session/api-key", `{"api_key":"sk_test"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.doJSON(http.MethodPost, "/api/v1/session/admin", `{"token":"admin-secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	decodeData(t, f.do(http.MethodGet, "/api/v1/session", nil, ""), &info)
	assert.Equal(t, domain.ModeAdmin, info.Mode)
	assert.True(t, info.HasAPIKey)

	w = f.do(http.MethodDelete, "/api/v1/session/admin", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, f.do(http.MethodGet, "/api/v1/session", nil, ""), &info)
	assert.Equal(t, domain.ModeNormal, info.Mode)
}

func TestSessionHandler_SetAPIKey_Invalid(t *testing.T) {
	f := newFixture(t)
	w := f.doJSON(http.MethodPut, "/api/v1/session/api-key", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_ClearCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.base.Cache.StoreJob(ctx, &domain.Job{ID: "j1", Status: domain.JobStatusQueued})
	f.base.Cache.SetLastViewed(ctx, "j1")

	w := f.do(http.MethodDelete, "/api/v1/cache", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.base.Cache.LoadJob(ctx, "j1"))
	assert.Empty(t, f.base.Cache.LastViewed(ctx))
}

func TestSessionHandler_Notices(t *testing.T) {
	f := newFixture(t)
	f.base.Notices.Add(domain.NoticeBatchFinished, "b1", "Batch b1 finished.")

	var notices []domain.Notice
	decodeData(t, f.do(http.MethodGet, "/api/v1/notices", nil, ""), &notices)
	require.Len(t, notices, 1)
	assert.Equal(t, "b1", notices[0].Subject)

	f.do(http.MethodDelete, "/api/v1/notices", nil, "")
	assert.Empty(t, f.base.Notices.List())
}

// --- Exports, insight, keys ---

func TestExportHandler_Validation(t *testing.T) {
	f := newFixture(t)

	w := f.doJSON(http.MethodPost, "/api/v1/exports", `{"format":"json"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.doJSON(http.MethodPost, "/api/v1/exports", `{"job_id":"j1","format":"pdf"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeData(t, w, nil)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestInsightHandler_ITC(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/reconcile/itc?gstr2b=a", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.api.On("ReconcileITC", mock.Anything, mock.Anything, "a", "b").Return(nil, &domain.HTTPError{Status: 404, Detail: "Job not found"})
	w = f.do(http.MethodGet, "/api/v1/reconcile/itc?gstr2b=a&gstr3b=b", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsightHandler_Validate(t *testing.T) {
	f := newFixture(t)
	f.api.On("Validate", mock.Anything, mock.Anything, domain.ValidationGSTR2B, "j2").
		Return(&domain.ValidationReport{JobID: "j2", DocType: "gstr2b"}, nil)

	var report domain.ValidationReport
	w := f.do(http.MethodGet, "/api/v1/validate/gstr2b/j2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &report)
	assert.Equal(t, "j2", report.JobID)

	w = f.do(http.MethodGet, "/api/v1/validate/invoice/j2", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKeyHandler_ListAndCreate(t *testing.T) {
	f := newFixture(t)
	f.api.On("ListAPIKeys", mock.Anything, mock.Anything).Return([]domain.APIKey{}, nil)

	w := f.do(http.MethodGet, "/api/v1/keys", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.doJSON(http.MethodPost, "/api/v1/keys", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKeyHandler_Revoke(t *testing.T) {
	f := newFixture(t)
	f.api.On("SetAPIKeyActive", mock.Anything, mock.Anything, "k1", false).Return(nil).Once()

	w := f.do(http.MethodPost, "/api/v1/keys/k1/revoke", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	f.api.AssertExpectations(t)
}

// --- Health ---

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("closed") }

func TestHealthHandler_Readiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(nil).Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/readyz", http.NoBody)
	handler.NewHealthHandler(failingPinger{}).Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- Error mapping ---

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", &domain.HTTPError{Status: 404}, http.StatusNotFound, "NOT_FOUND"},
		{"submission wraps 404", &domain.SubmissionError{Err: &domain.HTTPError{Status: 404}}, http.StatusBadGateway, "SUBMISSION_FAILED"},
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"admin token missing", domain.ErrAdminTokenMissing, http.StatusUnauthorized, "ADMIN_TOKEN_MISSING"},
		{"poll timeout", domain.ErrPollTimeout, http.StatusGatewayTimeout, "POLL_TIMEOUT"},
		{"upstream 401", &domain.HTTPError{Status: 401}, http.StatusBadGateway, "UPSTREAM_REJECTED_CREDENTIAL"},
		{"upstream 429", &domain.HTTPError{Status: 429}, http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED"},
		{"upstream 500", &domain.HTTPError{Status: 500, Detail: "boom"}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"transport", &domain.TransportError{Op: "GetJob", Err: errors.New("reset")}, http.StatusBadGateway, "UPSTREAM_UNREACHABLE"},
		{"invalid response", domain.ErrInvalidResponse, http.StatusBadGateway, "INVALID_UPSTREAM_RESPONSE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

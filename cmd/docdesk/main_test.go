package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/app"
	"docdesk/internal/config"
	"docdesk/internal/domain"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newTestApp starts a fake parsing service and an in-memory app pointed at it. The same app
// is reused across invocations so state carries over like a persistent store would.
func newTestApp(t *testing.T, mux *http.ServeMux) func(context.Context) (*app.App, error) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := &config.Config{
		API:       config.APIConfig{BaseURL: srv.URL, DefaultKey: "dev_123", AuthHeader: domain.AuthHeaderBearer, TimeoutSecs: 5, ListLimit: 10},
		Cache:     config.CacheConfig{Driver: app.DriverMemory},
		Downloads: config.DownloadsConfig{Sink: "local", Dir: filepath.Join(dir, "downloads")},
		Notify:    config.NotifyConfig{Provider: "noop"},
	}
	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	return func(context.Context) (*app.App, error) { return a, nil }
}

func execute(t *testing.T, open func(context.Context) (*app.App, error), args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestJobsCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, []map[string]any{
			{"id": "j1", "status": "succeeded", "filename": "april.pdf", "doc_type": "gst_invoice"},
		})
	})
	open := newTestApp(t, mux)

	csvDir := t.TempDir()
	out, err := execute(t, open, "jobs", "--csv", csvDir)
	require.NoError(t, err)
	assert.Contains(t, out, "j1")
	assert.Contains(t, out, "april.pdf")
	assert.Contains(t, out, "gst_invoice")

	entries, err := os.ReadDir(csvDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "jobs_")
}

func TestSubmitCommand_Wait(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/parse", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, map[string]any{"job_id": "j2", "status": "queued"})
	})
	mux.HandleFunc("/v1/jobs/j2", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"job_id":   "j2",
			"status":   "succeeded",
			"filename": "inv.pdf",
			"result":   map[string]any{"invoice_number": "INV-7"},
		})
	})
	open := newTestApp(t, mux)

	file := filepath.Join(t.TempDir(), "inv.pdf")
	require.NoError(t, os.WriteFile(file, []byte("%PDF-1.4"), 0o600))

	out, err := execute(t, open, "submit", file, "--wait")
	require.NoError(t, err)
	assert.Contains(t, out, "Submitted inv.pdf as job j2")
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "INV-7")

	out, err = execute(t, open, "status", "j2", "--cached")
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
}

func TestWatchCommand_NothingToResume(t *testing.T) {
	open := newTestApp(t, http.NewServeMux())

	_, err := execute(t, open, "watch")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateCommand_RejectsUnknownType(t *testing.T) {
	open := newTestApp(t, http.NewServeMux())

	_, err := execute(t, open, "validate", "invoice", "j1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKeyAndSessionCommands(t *testing.T) {
	open := newTestApp(t, http.NewServeMux())

	_, err := execute(t, open, "key", "set", "sk_live_1")
	require.NoError(t, err)
	_, err = execute(t, open, "admin", "enable", "admin-token")
	require.NoError(t, err)

	out, err := execute(t, open, "session")
	require.NoError(t, err)
	assert.Contains(t, out, "admin")

	out, err = execute(t, open, "session", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Started session")
}

func TestBatchWorkbookCommand(t *testing.T) {
	open := newTestApp(t, http.NewServeMux())
	a, err := open(context.Background())
	require.NoError(t, err)

	name := "April"
	a.Client.Cache.StoreBatch(context.Background(), &domain.Batch{ID: "b1", Name: &name, Status: domain.BatchStatusCompleted})

	dir := t.TempDir()
	out, err := execute(t, open, "batch", "workbook", "b1", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "batch_April_progress.xlsx")
	assert.FileExists(t, filepath.Join(dir, "batch_April_progress.xlsx"))

	_, err = execute(t, open, "batch", "workbook", "missing", "--dir", dir)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type closeFailer struct {
	bytes.Buffer
	closed bool
}

func (w *closeFailer) Close() error {
	w.closed = true
	return errors.New("flush failed")
}

func TestWriteJobsCSV_ReportsCloseError(t *testing.T) {
	w := &closeFailer{}
	err := writeJobsCSV(w, []domain.Job{{ID: "j1", Status: domain.JobStatusQueued}})

	require.EqualError(t, err, "flush failed")
	assert.True(t, w.closed)
	assert.Contains(t, w.String(), "j1,,queued")
}

package csvexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	r := csv.NewReader(&buf)
	row, err := r.Read()
	require.NoError(t, err)

	assert.Len(t, row, 7)
	assert.Equal(t, "Job ID", row[0])
	assert.Equal(t, "Created At", row[6])
}

func TestWriteJobs(t *testing.T) {
	jobs := []domain.Job{
		{
			ID:        "j1",
			Status:    domain.JobStatusSucceeded,
			Filename:  strPtr("inv, april.pdf"),
			DocType:   strPtr("gst_invoice"),
			Meta:      json.RawMessage(`{"detected_doc_type":"invoice","doc_type_confidence":0.93}`),
			CreatedAt: domain.Timestamp{Time: time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)},
		},
		{ID: "j2", Status: domain.JobStatusQueued},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, jobs))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"j1", "inv, april.pdf", "succeeded", "gst_invoice", "invoice", "0.93", "2024-04-01T10:00:00Z"}, rows[1])
	assert.Equal(t, []string{"j2", "", "queued", "", "", "", ""}, rows[2])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Q3 Purchase Invoices", "Q3_Purchase_Invoices"},
		{"special chars", "FY 2024-25 / Q3 (Oct–Dec)", "FY_2024-25_Q3_Oct_Dec"},
		{"unicode", "कंपनी Invoices", "Invoices"},
		{"hyphens and underscores preserved", "my-batch_2025", "my-batch_2025"},
		{"consecutive underscores collapsed", "test___batch", "test_batch"},
		{"leading/trailing cleaned", "  hello  ", "hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	at := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Recent_jobs_2024-04-01.csv", BuildFilename("Recent jobs", at))
	assert.Equal(t, "jobs_2024-04-01.csv", BuildFilename("///", at))
}

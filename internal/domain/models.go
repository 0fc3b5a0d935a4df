package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Job is one document-processing request as observed from the parsing service.
// The client never mutates a Job; it only observes and caches it.
type Job struct {
	ID        string          `json:"job_id"`
	Status    JobStatus       `json:"status"`
	DocType   *string         `json:"doc_type,omitempty"`
	Filename  *string         `json:"filename,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt Timestamp       `json:"created_at,omitzero"`
}

// JobMeta holds the well-known keys of a job's metadata bag.
type JobMeta struct {
	DetectedDocType   *string         `json:"detected_doc_type"`
	DocTypeConfidence *float64        `json:"doc_type_confidence"`
	Reconciliations   json.RawMessage `json:"reconciliations"`
}

// MetaInfo decodes the well-known metadata keys. A missing or malformed bag yields a zero JobMeta.
func (j *Job) MetaInfo() JobMeta {
	var m JobMeta
	if len(j.Meta) == 0 || bytes.Equal(j.Meta, []byte("null")) {
		return m
	}
	if err := json.Unmarshal(j.Meta, &m); err != nil {
		return JobMeta{}
	}
	return m
}

// EffectiveDocType returns the declared doc type, falling back to the detected one.
func (j *Job) EffectiveDocType() string {
	if j.DocType != nil && *j.DocType != "" {
		return *j.DocType
	}
	if m := j.MetaInfo(); m.DetectedDocType != nil {
		return *m.DetectedDocType
	}
	return ""
}

// Timestamp decodes the several timestamp layouts the service emits. Unparseable values
// decode to the zero time rather than failing the whole payload.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// Progress is the aggregate accounting of a batch.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
}

// ReportedProgress is whatever subset of Progress the service chose to send.
type ReportedProgress struct {
	Total      *int `json:"total"`
	Completed  *int `json:"completed"`
	Failed     *int `json:"failed"`
	Processing *int `json:"processing"`
}

// BatchJob is a constituent job summary of a batch.
type BatchJob struct {
	ID       string          `json:"job_id"`
	Filename string          `json:"filename"`
	Status   JobStatus       `json:"status"`
	DocType  *string         `json:"doc_type,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
}

// Batch is an aggregate of jobs submitted together.
type Batch struct {
	ID       string      `json:"batch_id"`
	Name     *string     `json:"batch_name,omitempty"`
	ClientID *string     `json:"client_id,omitempty"`
	Status   BatchStatus `json:"status"`
	Progress Progress    `json:"progress"`
	Jobs     []BatchJob  `json:"jobs"`
}

// DeriveProgress computes batch counters so that Completed+Failed+Processing == Total for
// every input. Reported counters win over counts derived from jobs; the total is raised
// when reported or derived terminal counts exceed it.
func DeriveProgress(reported *ReportedProgress, totalFiles *int, jobs []BatchJob) Progress {
	var completed, failed int
	for i := range jobs {
		switch jobs[i].Status {
		case JobStatusSucceeded:
			completed++
		case JobStatusFailed:
			failed++
		}
	}
	total := len(jobs)
	if totalFiles != nil {
		total = *totalFiles
	}
	if reported != nil {
		if reported.Completed != nil {
			completed = *reported.Completed
		}
		if reported.Failed != nil {
			failed = *reported.Failed
		}
		if reported.Total != nil {
			total = *reported.Total
		}
	}
	completed = max(completed, 0)
	failed = max(failed, 0)
	if total < completed+failed {
		total = completed + failed
	}
	return Progress{
		Total:      total,
		Completed:  completed,
		Failed:     failed,
		Processing: total - completed - failed,
	}
}

// ExportFile is a pre-rendered file body produced by the service.
type ExportFile struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"-"`
	ContentType string `json:"content_type"`
}

// ValidationIssue is a single advisory from the validation endpoint.
type ValidationIssue struct {
	Code    string                     `json:"code"`
	Level   string                     `json:"level"`
	Message string                     `json:"message"`
	Meta    map[string]json.RawMessage `json:"meta,omitempty"`
}

// ValidationReport is the response of GET /v1/validate/{docType}/{jobId}.
type ValidationReport struct {
	JobID      string            `json:"job_id"`
	DocType    string            `json:"doc_type"`
	Valid      *bool             `json:"valid,omitempty"`
	Issues     []ValidationIssue `json:"issues"`
	IssueCount *int              `json:"issue_count,omitempty"`
}

// APIKey is an API key record as listed by the service. The secret itself is never listed.
type APIKey struct {
	ID                 string    `json:"id"`
	Name               *string   `json:"name"`
	TenantID           string    `json:"tenant_id"`
	Active             bool      `json:"active"`
	RateLimitPerMinute int       `json:"rate_limit_per_minute"`
	RateLimitPerHour   int       `json:"rate_limit_per_hour"`
	LastUsedAt         Timestamp `json:"last_used_at,omitzero"`
	CreatedAt          Timestamp `json:"created_at,omitzero"`
}

// CreatedAPIKey is returned once on key creation and carries the secret.
type CreatedAPIKey struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"api_key"`
	Active    bool      `json:"active"`
	CreatedAt Timestamp `json:"created_at,omitzero"`
}

// Usage is the tenant's monthly consumption.
type Usage struct {
	Month      string `json:"month"`
	DocsParsed int    `json:"docs_parsed"`
	OCRPages   int    `json:"ocr_pages"`
}

// Sample is a demo document published by the service.
type Sample struct {
	Filename    string `json:"filename"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
}

// Notice is an informational, user-visible message recorded by the lifecycle clients.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Subject string     `json:"subject,omitempty"`
	At      time.Time  `json:"at"`
}

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

// jobPayload is the job shape as the service sends it. List rows carry `id` as well as `job_id`.
type jobPayload struct {
	JobID     string           `json:"job_id"`
	ID        string           `json:"id"`
	Status    domain.JobStatus `json:"status"`
	DocType   *string          `json:"doc_type"`
	Filename  *string          `json:"filename"`
	Result    json.RawMessage  `json:"result"`
	Meta      json.RawMessage  `json:"meta"`
	CreatedAt domain.Timestamp `json:"created_at"`
}

func (p *jobPayload) toJob() (*domain.Job, bool) {
	id := p.JobID
	if id == "" {
		id = p.ID
	}
	if id == "" {
		return nil, false
	}
	status := p.Status
	if status == "" {
		status = domain.JobStatusQueued
	}
	return &domain.Job{
		ID:        id,
		Status:    status,
		DocType:   p.DocType,
		Filename:  p.Filename,
		Result:    rawOrNil(p.Result),
		Meta:      rawOrNil(p.Meta),
		CreatedAt: p.CreatedAt,
	}, true
}

func (c *Client) SubmitJob(ctx context.Context, ep domain.Endpoint, input port.SubmitInput) (*domain.Job, error) {
	const op = "apiclient.SubmitJob"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writeFilePart(w, "file", input.Filename, input.ContentType, input.Content); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if input.DocTypeHint != "" {
		if err := w.WriteField("doc_type", input.DocTypeHint); err != nil {
			return nil, fmt.Errorf("%s: writing doc_type: %w", op, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: closing multipart body: %w", op, err)
	}

	body, err := c.do(ctx, ep, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/v1/parse",
		body:        &buf,
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var payload jobPayload
	if err := decode(op, body, &payload); err != nil {
		return nil, err
	}
	// Submit responses only carry job_id.
	if payload.JobID == "" {
		return nil, fmt.Errorf("%s: %w: missing job_id", op, domain.ErrInvalidResponse)
	}
	job, _ := payload.toJob()
	if job.Filename == nil && input.Filename != "" {
		name := input.Filename
		job.Filename = &name
	}
	return job, nil
}

func (c *Client) GetJob(ctx context.Context, ep domain.Endpoint, jobID string) (*domain.Job, error) {
	const op = "apiclient.GetJob"
	var payload jobPayload
	if err := c.getJSON(ctx, ep, op, "/v1/jobs/"+url.PathEscape(jobID), nil, &payload); err != nil {
		return nil, err
	}
	job, ok := payload.toJob()
	if !ok {
		return nil, fmt.Errorf("%s: %w: missing job_id", op, domain.ErrInvalidResponse)
	}
	return job, nil
}

func (c *Client) ListJobs(ctx context.Context, ep domain.Endpoint, limit int) ([]domain.Job, error) {
	const op = "apiclient.ListJobs"
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var payload []jobPayload
	if err := c.getJSON(ctx, ep, op, "/v1/jobs", query, &payload); err != nil {
		return nil, err
	}
	jobs := make([]domain.Job, 0, len(payload))
	for i := range payload {
		if job, ok := payload[i].toJob(); ok {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, field, filename, contentType string, content io.Reader) error {
	if content == nil {
		return fmt.Errorf("%w: %s has no content", domain.ErrInvalidInput, filename)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating %s part: %w", field, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("copying %s: %w", filename, err)
	}
	return nil
}

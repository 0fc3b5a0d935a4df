package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

type batchJobPayload struct {
	JobID    string           `json:"job_id"`
	ID       string           `json:"id"`
	Filename string           `json:"filename"`
	Status   domain.JobStatus `json:"status"`
	DocType  *string          `json:"doc_type"`
	Result   json.RawMessage  `json:"result"`
}

type batchPayload struct {
	BatchID    string                   `json:"batch_id"`
	BatchName  *string                  `json:"batch_name"`
	Name       *string                  `json:"name"`
	ClientID   *string                  `json:"client_id"`
	Status     domain.BatchStatus       `json:"status"`
	TotalFiles *int                     `json:"total_files"`
	Progress   *domain.ReportedProgress `json:"progress"`
	Jobs       []batchJobPayload        `json:"jobs"`
}

// toBatch normalizes the payload. Progress is always derived so that its counters add up.
func (p *batchPayload) toBatch() *domain.Batch {
	jobs := make([]domain.BatchJob, 0, len(p.Jobs))
	for _, j := range p.Jobs {
		id := j.JobID
		if id == "" {
			id = j.ID
		}
		status := j.Status
		if status == "" {
			status = domain.JobStatusQueued
		}
		jobs = append(jobs, domain.BatchJob{
			ID:       id,
			Filename: j.Filename,
			Status:   status,
			DocType:  j.DocType,
			Result:   rawOrNil(j.Result),
		})
	}

	name := p.BatchName
	if name == nil {
		name = p.Name
	}
	status := p.Status
	if status == "" {
		status = domain.BatchStatusQueued
	}
	return &domain.Batch{
		ID:       p.BatchID,
		Name:     name,
		ClientID: p.ClientID,
		Status:   status,
		Progress: domain.DeriveProgress(p.Progress, p.TotalFiles, jobs),
		Jobs:     jobs,
	}
}

func decodeBatch(op string, body []byte) (*domain.Batch, error) {
	var payload batchPayload
	if err := decode(op, body, &payload); err != nil {
		return nil, err
	}
	if payload.BatchID == "" {
		return nil, fmt.Errorf("%s: %w: missing batch_id", op, domain.ErrInvalidResponse)
	}
	return payload.toBatch(), nil
}

func (c *Client) SubmitBatch(ctx context.Context, ep domain.Endpoint, input port.BatchSubmitInput) (*domain.Batch, error) {
	const op = "apiclient.SubmitBatch"
	if len(input.Files) == 0 {
		return nil, fmt.Errorf("%s: %w: no files", op, domain.ErrInvalidInput)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range input.Files {
		if err := writeFilePart(w, "files", f.Filename, f.ContentType, f.Content); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	fields := []struct{ name, value string }{
		{"client_id", input.ClientID},
		{"batch_name", input.Name},
		{"doc_type", input.DocType},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("%s: writing %s: %w", op, f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: closing multipart body: %w", op, err)
	}

	body, err := c.do(ctx, ep, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/v1/bulk-parse",
		body:        &buf,
		contentType: w.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	return decodeBatch(op, body)
}

func (c *Client) GetBatch(ctx context.Context, ep domain.Endpoint, batchID string) (*domain.Batch, error) {
	const op = "apiclient.GetBatch"
	body, err := c.do(ctx, ep, request{op: op, method: http.MethodGet, path: "/v1/batches/" + url.PathEscape(batchID)})
	if err != nil {
		return nil, err
	}
	return decodeBatch(op, body)
}

// ExportBatch returns the batch export body. The service wraps CSV and Tally bodies in a JSON
// envelope; JSON exports are handed over as received.
func (c *Client) ExportBatch(ctx context.Context, ep domain.Endpoint, batchID string, format domain.BatchExportFormat) (*domain.ExportFile, error) {
	const op = "apiclient.ExportBatch"
	query := url.Values{"format": {string(format)}}
	body, err := c.do(ctx, ep, request{
		op:     op,
		method: http.MethodGet,
		path:   "/v1/batches/" + url.PathEscape(batchID) + "/export",
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Filename *string `json:"filename"`
		CSVData  *string `json:"csv_data"`
		TallyXML *string `json:"tally_xml"`
		TallyCSV *string `json:"tally_csv"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil && !json.Valid(body) {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidResponse, err)
	}

	file := &domain.ExportFile{
		Filename:    fmt.Sprintf("batch_%s_export.json", batchID),
		Content:     body,
		ContentType: "application/json",
	}
	switch {
	case envelope.CSVData != nil:
		file.Filename = fmt.Sprintf("batch_%s_export.csv", batchID)
		file.Content = []byte(*envelope.CSVData)
		file.ContentType = "text/csv"
	case envelope.TallyXML != nil:
		file.Filename = fmt.Sprintf("batch_%s_tally.xml", batchID)
		file.Content = []byte(*envelope.TallyXML)
		file.ContentType = "application/xml"
	case envelope.TallyCSV != nil:
		file.Filename = fmt.Sprintf("batch_%s_tally.csv", batchID)
		file.Content = []byte(*envelope.TallyCSV)
		file.ContentType = "text/csv"
	}
	if envelope.Filename != nil && *envelope.Filename != "" {
		file.Filename = *envelope.Filename
	}
	return file, nil
}

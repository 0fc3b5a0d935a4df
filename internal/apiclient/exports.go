package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

type exportEnvelope struct {
	Filename string          `json:"filename"`
	Content  json.RawMessage `json:"content"`
}

// contentBytes returns string content verbatim and anything else as the raw JSON it arrived as.
func (e *exportEnvelope) contentBytes() []byte {
	if len(e.Content) == 0 || string(e.Content) == "null" {
		return []byte{}
	}
	var s string
	if err := json.Unmarshal(e.Content, &s); err == nil {
		return []byte(s)
	}
	return e.Content
}

// reconExportRoute maps a reconciliation export to its path segment and type filter.
func reconExportRoute(kind domain.ReconExportKind) (string, string, error) {
	switch kind {
	case domain.ReconExportMissingGSTR1:
		return "missing-invoices", "gstr1", nil
	case domain.ReconExportMissingSales:
		return "missing-invoices", "sales_register", nil
	case domain.ReconExportValueMismatch:
		return "value-mismatches", "", nil
	case domain.ReconExportITCSummary:
		return "itc-summary", "", nil
	}
	return "", "", fmt.Errorf("%w: unknown reconciliation export %q", domain.ErrInvalidInput, kind)
}

func (c *Client) Export(ctx context.Context, ep domain.Endpoint, req port.ExportRequest) (*domain.ExportFile, error) {
	const op = "apiclient.Export"
	if req.JobID == "" {
		return nil, fmt.Errorf("%s: %w: job id is required", op, domain.ErrInvalidInput)
	}

	var (
		p        string
		query    url.Values
		fallback string
		ctype    string
	)
	if req.ReconKind != "" {
		segment, typ, err := reconExportRoute(req.ReconKind)
		if err != nil {
			return nil, err
		}
		p = "/v1/export/reconciliation/" + segment + "/" + url.PathEscape(req.JobID)
		if typ != "" {
			query = url.Values{"type": {typ}}
		}
		fallback = fmt.Sprintf("%s_%s.csv", req.ReconKind, req.JobID)
		ctype = "text/csv"
	} else {
		if req.Format == "" {
			return nil, fmt.Errorf("%s: %w: export format is required", op, domain.ErrInvalidInput)
		}
		p = "/v1/export/" + url.PathEscape(string(req.Format)) + "/" + url.PathEscape(req.JobID)
		fallback = req.JobID + ".txt"
		ctype = "text/plain"
	}

	var envelope exportEnvelope
	if err := c.getJSON(ctx, ep, op, p, query, &envelope); err != nil {
		return nil, err
	}
	filename := envelope.Filename
	if filename == "" {
		filename = fallback
	}
	return &domain.ExportFile{
		Filename:    filename,
		Content:     envelope.contentBytes(),
		ContentType: contentTypeByExt(filename, ctype),
	}, nil
}

// ReconcileITC returns the raw ITC comparison. Responses wrapped as {"result": ...} are unwrapped.
func (c *Client) ReconcileITC(ctx context.Context, ep domain.Endpoint, job2bID, job3bID string) ([]byte, error) {
	const op = "apiclient.ReconcileITC"
	query := url.Values{"job2b_id": {job2bID}, "job3b_id": {job3bID}}
	body, err := c.do(ctx, ep, request{op: op, method: http.MethodGet, path: "/v1/reconcile/itc/2b-3b", query: query})
	if err != nil {
		return nil, err
	}

	var wrapped struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrInvalidResponse, err)
	}
	if r := rawOrNil(wrapped.Result); r != nil {
		return r, nil
	}
	return body, nil
}

func (c *Client) Validate(ctx context.Context, ep domain.Endpoint, docType domain.ValidationDocType, jobID string) (*domain.ValidationReport, error) {
	const op = "apiclient.Validate"
	var report domain.ValidationReport
	p := "/v1/validate/" + url.PathEscape(string(docType)) + "/" + url.PathEscape(jobID)
	if err := c.getJSON(ctx, ep, op, p, nil, &report); err != nil {
		return nil, err
	}
	if report.JobID == "" {
		report.JobID = jobID
	}
	if report.DocType == "" {
		report.DocType = string(docType)
	}
	return &report, nil
}

func (c *Client) Usage(ctx context.Context, ep domain.Endpoint) (*domain.Usage, error) {
	var usage domain.Usage
	if err := c.getJSON(ctx, ep, "apiclient.Usage", "/v1/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (c *Client) ListSamples(ctx context.Context, ep domain.Endpoint) ([]domain.Sample, error) {
	var payload struct {
		Samples []domain.Sample `json:"samples"`
	}
	if err := c.getJSON(ctx, ep, "apiclient.ListSamples", "/v1/samples", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Samples, nil
}

// DownloadSample fetches a sample document's raw bytes.
func (c *Client) DownloadSample(ctx context.Context, ep domain.Endpoint, filename string) (*domain.ExportFile, error) {
	const op = "apiclient.DownloadSample"
	body, err := c.do(ctx, ep, request{op: op, method: http.MethodGet, path: "/v1/samples/" + url.PathEscape(filename)})
	if err != nil {
		return nil, err
	}
	return &domain.ExportFile{
		Filename:    path.Base(filename),
		Content:     body,
		ContentType: contentTypeByExt(filename, "application/octet-stream"),
	}, nil
}

func contentTypeByExt(filename, fallback string) string {
	switch path.Ext(filename) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	}
	if ct, err := domain.ContentTypeFor(filename); err == nil {
		return ct
	}
	return fallback
}

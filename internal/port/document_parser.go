package port

import (
	"context"
	"io"

	"docdesk/internal/domain"
)

// SubmitInput carries one document for POST /v1/parse.
type SubmitInput struct {
	Filename    string
	ContentType string
	Content     io.Reader
	DocTypeHint string
}

// BatchFile is one member of a bulk submission.
type BatchFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// BatchSubmitInput carries the files and metadata for POST /v1/bulk-parse.
type BatchSubmitInput struct {
	Files    []BatchFile
	Name     string
	ClientID string
	DocType  string
}

// ExportRequest addresses one pre-rendered export on the service.
type ExportRequest struct {
	JobID string
	// Format selects a per-job export; ignored when ReconKind is set.
	Format domain.JobExportFormat
	// ReconKind selects a reconciliation export.
	ReconKind domain.ReconExportKind
}

// DocParserAPI is the remote parsing service as consumed by the lifecycle clients.
// Every call takes the endpoint resolved for that request.
type DocParserAPI interface {
	SubmitJob(ctx context.Context, ep domain.Endpoint, input SubmitInput) (*domain.Job, error)
	GetJob(ctx context.Context, ep domain.Endpoint, jobID string) (*domain.Job, error)
	ListJobs(ctx context.Context, ep domain.Endpoint, limit int) ([]domain.Job, error)

	SubmitBatch(ctx context.Context, ep domain.Endpoint, input BatchSubmitInput) (*domain.Batch, error)
	GetBatch(ctx context.Context, ep domain.Endpoint, batchID string) (*domain.Batch, error)
	ExportBatch(ctx context.Context, ep domain.Endpoint, batchID string, format domain.BatchExportFormat) (*domain.ExportFile, error)

	Export(ctx context.Context, ep domain.Endpoint, req ExportRequest) (*domain.ExportFile, error)
	ReconcileITC(ctx context.Context, ep domain.Endpoint, job2bID, job3bID string) ([]byte, error)
	Validate(ctx context.Context, ep domain.Endpoint, docType domain.ValidationDocType, jobID string) (*domain.ValidationReport, error)
	Usage(ctx context.Context, ep domain.Endpoint) (*domain.Usage, error)

	ListSamples(ctx context.Context, ep domain.Endpoint) ([]domain.Sample, error)
	DownloadSample(ctx context.Context, ep domain.Endpoint, filename string) (*domain.ExportFile, error)

	// API key routes depend on ep.Credential.Mode: admin mode uses /admin/api-keys.
	ListAPIKeys(ctx context.Context, ep domain.Endpoint) ([]domain.APIKey, error)
	CreateAPIKey(ctx context.Context, ep domain.Endpoint, name string) (*domain.CreatedAPIKey, error)
	SetAPIKeyActive(ctx context.Context, ep domain.Endpoint, keyID string, active bool) error
}

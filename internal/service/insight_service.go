package service

import (
	"context"
	"fmt"
	"strings"

	"docdesk/internal/domain"
	"docdesk/internal/port"
	"docdesk/internal/recon"
)

// InsightService exposes the read-only analyses the parsing service computes.
type InsightService interface {
	ITC(ctx context.Context, cc *ClientContext, job2bID, job3bID string) (recon.Result, error)
	FromJob(job *domain.Job) []recon.Result
	Validate(ctx context.Context, cc *ClientContext, docType domain.ValidationDocType, jobID string) (*domain.ValidationReport, error)
	Usage(ctx context.Context, cc *ClientContext) (*domain.Usage, error)
	Samples(ctx context.Context, cc *ClientContext) ([]domain.Sample, error)
}

type insightService struct {
	api port.DocParserAPI
}

// NewInsightService creates a new InsightService.
func NewInsightService(api port.DocParserAPI) InsightService {
	return &insightService{api: api}
}

// ITC compares GSTR-2B availability with GSTR-3B claims. A payload that does not decode is
// returned as an Unavailable result, not as an error.
func (s *insightService) ITC(ctx context.Context, cc *ClientContext, job2bID, job3bID string) (recon.Result, error) {
	job2bID, job3bID = strings.TrimSpace(job2bID), strings.TrimSpace(job3bID)
	if job2bID == "" || job3bID == "" {
		return recon.Result{}, fmt.Errorf("%w: both GSTR-2B and GSTR-3B job ids are required", domain.ErrInvalidInput)
	}
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return recon.Result{}, err
	}
	raw, err := s.api.ReconcileITC(ctx, ep, job2bID, job3bID)
	if err != nil {
		return recon.Result{}, err
	}
	return recon.DecodeITC(raw, job2bID, job3bID), nil
}

func (s *insightService) FromJob(job *domain.Job) []recon.Result {
	if job == nil {
		return nil
	}
	return recon.FromMeta(job.Meta)
}

func (s *insightService) Validate(ctx context.Context, cc *ClientContext, docType domain.ValidationDocType, jobID string) (*domain.ValidationReport, error) {
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: cannot validate document type %q", domain.ErrInvalidInput, docType)
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.Validate(ctx, ep, docType, jobID)
}

func (s *insightService) Usage(ctx context.Context, cc *ClientContext) (*domain.Usage, error) {
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.Usage(ctx, ep)
}

func (s *insightService) Samples(ctx context.Context, cc *ClientContext) ([]domain.Sample, error) {
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	return s.api.ListSamples(ctx, ep)
}

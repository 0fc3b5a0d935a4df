package service

import (
	"context"
	"fmt"
	"strings"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

// ExportService downloads files rendered by the parsing service.
type ExportService interface {
	Download(ctx context.Context, cc *ClientContext, req port.ExportRequest) (*port.SaveOutput, error)
	DownloadSample(ctx context.Context, cc *ClientContext, filename string) (*port.SaveOutput, error)
}

type exportService struct {
	api  port.DocParserAPI
	sink port.DownloadSink
}

// NewExportService creates a new ExportService.
func NewExportService(api port.DocParserAPI, sink port.DownloadSink) ExportService {
	return &exportService{api: api, sink: sink}
}

func (s *exportService) Download(ctx context.Context, cc *ClientContext, req port.ExportRequest) (*port.SaveOutput, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return nil, fmt.Errorf("%w: job id is required", domain.ErrInvalidInput)
	}
	switch {
	case req.ReconKind != "":
		if !req.ReconKind.Valid() {
			return nil, fmt.Errorf("%w: unknown reconciliation export %q", domain.ErrInvalidInput, req.ReconKind)
		}
	case !req.Format.Valid():
		return nil, fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidInput, req.Format)
	}

	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	file, err := s.api.Export(ctx, ep, req)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, file)
}

func (s *exportService) DownloadSample(ctx context.Context, cc *ClientContext, filename string) (*port.SaveOutput, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return nil, fmt.Errorf("%w: invalid sample name %q", domain.ErrInvalidInput, filename)
	}
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	file, err := s.api.DownloadSample(ctx, ep, filename)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, file)
}

func (s *exportService) save(ctx context.Context, file *domain.ExportFile) (*port.SaveOutput, error) {
	out, err := s.sink.Save(ctx, port.SaveInput{
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Content:     file.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("saving %s: %w", file.Filename, err)
	}
	return out, nil
}

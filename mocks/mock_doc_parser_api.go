package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

// MockDocParserAPI is a mock implementation of port.DocParserAPI.
type MockDocParserAPI struct {
	mock.Mock
}

func (m *MockDocParserAPI) SubmitJob(ctx context.Context, ep domain.Endpoint, input port.SubmitInput) (*domain.Job, error) {
	args := m.Called(ctx, ep, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockDocParserAPI) GetJob(ctx context.Context, ep domain.Endpoint, jobID string) (*domain.Job, error) {
	args := m.Called(ctx, ep, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *MockDocParserAPI) ListJobs(ctx context.Context, ep domain.Endpoint, limit int) ([]domain.Job, error) {
	args := m.Called(ctx, ep, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Job), args.Error(1)
}

func (m *MockDocParserAPI) SubmitBatch(ctx context.Context, ep domain.Endpoint, input port.BatchSubmitInput) (*domain.Batch, error) {
	args := m.Called(ctx, ep, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Batch), args.Error(1)
}

func (m *MockDocParserAPI) GetBatch(ctx context.Context, ep domain.Endpoint, batchID string) (*domain.Batch, error) {
	args := m.Called(ctx, ep, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Batch), args.Error(1)
}

func (m *MockDocParserAPI) ExportBatch(ctx context.Context, ep domain.Endpoint, batchID string, format domain.BatchExportFormat) (*domain.ExportFile, error) {
	args := m.Called(ctx, ep, batchID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportFile), args.Error(1)
}

func (m *MockDocParserAPI) Export(ctx context.Context, ep domain.Endpoint, req port.ExportRequest) (*domain.ExportFile, error) {
	args := m.Called(ctx, ep, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportFile), args.Error(1)
}

func (m *MockDocParserAPI) ReconcileITC(ctx context.Context, ep domain.Endpoint, job2bID, job3bID string) ([]byte, error) {
	args := m.Called(ctx, ep, job2bID, job3bID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockDocParserAPI) Validate(ctx context.Context, ep domain.Endpoint, docType domain.ValidationDocType, jobID string) (*domain.ValidationReport, error) {
	args := m.Called(ctx, ep, docType, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValidationReport), args.Error(1)
}

func (m *MockDocParserAPI) Usage(ctx context.Context, ep domain.Endpoint) (*domain.Usage, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Usage), args.Error(1)
}

func (m *MockDocParserAPI) ListSamples(ctx context.Context, ep domain.Endpoint) ([]domain.Sample, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sample), args.Error(1)
}

func (m *MockDocParserAPI) DownloadSample(ctx context.Context, ep domain.Endpoint, filename string) (*domain.ExportFile, error) {
	args := m.Called(ctx, ep, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExportFile), args.Error(1)
}

func (m *MockDocParserAPI) ListAPIKeys(ctx context.Context, ep domain.Endpoint) ([]domain.APIKey, error) {
	args := m.Called(ctx, ep)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockDocParserAPI) CreateAPIKey(ctx context.Context, ep domain.Endpoint, name string) (*domain.CreatedAPIKey, error) {
	args := m.Called(ctx, ep, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreatedAPIKey), args.Error(1)
}

func (m *MockDocParserAPI) SetAPIKeyActive(ctx context.Context, ep domain.Endpoint, keyID string, active bool) error {
	args := m.Called(ctx, ep, keyID, active)
	return args.Error(0)
}

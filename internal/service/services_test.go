package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docdesk/internal/domain"
	"docdesk/internal/port"
	"docdesk/internal/recon"
	"docdesk/internal/service"
	"docdesk/mocks"
)

// --- ExportService ---

func TestExportService_Download(t *testing.T) {
	tests := []struct {
		name string
		req  port.ExportRequest
	}{
		{"job export", port.ExportRequest{JobID: "j1", Format: domain.ExportTallyXML}},
		{"reconciliation export", port.ExportRequest{JobID: "j1", ReconKind: domain.ReconExportValueMismatch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.MockDocParserAPI)
			sink := new(mocks.MockDownloadSink)
			svc := service.NewExportService(api, sink)

			file := &domain.ExportFile{Filename: "out.bin", ContentType: "application/octet-stream", Content: []byte{0x00, 0xff}}
			api.On("Export", mock.Anything, mock.Anything, tt.req).Return(file, nil).Once()
			sink.On("Save", mock.Anything, port.SaveInput{Filename: "out.bin", ContentType: "application/octet-stream", Content: []byte{0x00, 0xff}}).
				Return(&port.SaveOutput{Location: "/tmp/out.bin"}, nil).Once()

			out, err := svc.Download(context.Background(), newClientContext(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "/tmp/out.bin", out.Location)
			api.AssertExpectations(t)
			sink.AssertExpectations(t)
		})
	}
}

func TestExportService_Download_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  port.ExportRequest
	}{
		{"no job", port.ExportRequest{Format: domain.ExportJSON}},
		{"unknown format", port.ExportRequest{JobID: "j1", Format: "pdf"}},
		{"unknown recon kind", port.ExportRequest{JobID: "j1", ReconKind: "everything"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(mocks.MockDocParserAPI)
			svc := service.NewExportService(api, new(mocks.MockDownloadSink))

			_, err := svc.Download(context.Background(), newClientContext(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			api.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestExportService_Download_SinkFailure(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	sink := new(mocks.MockDownloadSink)
	svc := service.NewExportService(api, sink)

	api.On("Export", mock.Anything, mock.Anything, mock.Anything).Return(&domain.ExportFile{Filename: "j1.json"}, nil)
	sink.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("disk full"))

	_, err := svc.Download(context.Background(), newClientContext(), port.ExportRequest{JobID: "j1", Format: domain.ExportJSON})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestExportService_DownloadSample(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	sink := new(mocks.MockDownloadSink)
	svc := service.NewExportService(api, sink)

	_, err := svc.DownloadSample(context.Background(), newClientContext(), "../secret")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	api.On("DownloadSample", mock.Anything, mock.Anything, "gstr1.json").
		Return(&domain.ExportFile{Filename: "gstr1.json", ContentType: "application/json", Content: []byte("{}")}, nil)
	sink.On("Save", mock.Anything, mock.Anything).Return(&port.SaveOutput{Location: "downloads/gstr1.json"}, nil)

	out, err := svc.DownloadSample(context.Background(), newClientContext(), "gstr1.json")
	require.NoError(t, err)
	assert.Equal(t, "downloads/gstr1.json", out.Location)
}

// --- InsightService ---

func TestInsightService_ITC(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewInsightService(api)
	cc := newClientContext()

	_, err := svc.ITC(context.Background(), cc, "j2b", " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	api.On("ReconcileITC", mock.Anything, mock.Anything, "j2b", "j3b").Return([]byte(`{"by_head": {}}`), nil)

	res, err := svc.ITC(context.Background(), cc, "j2b", "j3b")
	require.NoError(t, err)
	assert.Equal(t, recon.KindUnavailable, res.Kind, "malformed payloads degrade instead of failing")
}

func TestInsightService_ITC_PropagatesNotFound(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewInsightService(api)

	api.On("ReconcileITC", mock.Anything, mock.Anything, "a", "b").Return(nil, &domain.HTTPError{Status: 404, Detail: "Job not found"})

	_, err := svc.ITC(context.Background(), newClientContext(), "a", "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsightService_FromJob(t *testing.T) {
	svc := service.NewInsightService(new(mocks.MockDocParserAPI))

	assert.Nil(t, svc.FromJob(nil))
	assert.Empty(t, svc.FromJob(&domain.Job{ID: "j1"}))

	res := svc.FromJob(&domain.Job{ID: "j1", Meta: []byte(`{"reconciliations":{"sales_vs_gstr1":null}}`)})
	require.Len(t, res, 1)
	assert.Equal(t, recon.KindUnavailable, res[0].Kind)
}

func TestInsightService_Validate(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewInsightService(api)
	cc := newClientContext()

	_, err := svc.Validate(context.Background(), cc, "invoice", "j1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	report := &domain.ValidationReport{JobID: "j1", DocType: "gstr3b", Issues: []domain.ValidationIssue{}}
	api.On("Validate", mock.Anything, mock.Anything, domain.ValidationGSTR3B, "j1").Return(report, nil)

	got, err := svc.Validate(context.Background(), cc, domain.ValidationGSTR3B, "j1")
	require.NoError(t, err)
	assert.Same(t, report, got)
}

func TestInsightService_UsageAndSamples(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewInsightService(api)
	cc := newClientContext()

	api.On("Usage", mock.Anything, mock.Anything).Return(&domain.Usage{Month: "2024-04", DocsParsed: 12}, nil)
	api.On("ListSamples", mock.Anything, mock.Anything).Return([]domain.Sample{{Filename: "gstr1.json"}}, nil)

	usage, err := svc.Usage(context.Background(), cc)
	require.NoError(t, err)
	assert.Equal(t, 12, usage.DocsParsed)

	samples, err := svc.Samples(context.Background(), cc)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

// --- KeyService ---

func TestKeyService_UsesModeOfCredentials(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewKeyService(api)
	cc := newClientContext()
	ctx := context.Background()

	api.On("ListAPIKeys", mock.Anything, mock.MatchedBy(func(ep domain.Endpoint) bool {
		return ep.Credential.Mode == domain.ModeNormal && ep.Credential.Secret == "dev_123"
	})).Return([]domain.APIKey{{ID: "k1"}}, nil).Once()

	keys, err := svc.List(ctx, cc)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	require.NoError(t, cc.Credentials.EnableAdminMode(ctx, "admin-secret"))
	api.On("SetAPIKeyActive", mock.Anything, mock.MatchedBy(func(ep domain.Endpoint) bool {
		return ep.Credential.Mode == domain.ModeAdmin && ep.Credential.Secret == "admin-secret"
	}), "k1", false).Return(nil).Once()

	require.NoError(t, svc.Revoke(ctx, cc, "k1"))
	api.AssertExpectations(t)
}

func TestKeyService_Validation(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewKeyService(api)
	cc := newClientContext()

	_, err := svc.Create(context.Background(), cc, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Activate(context.Background(), cc, ""), domain.ErrInvalidInput)
}

func TestKeyService_Create(t *testing.T) {
	api := new(mocks.MockDocParserAPI)
	svc := service.NewKeyService(api)

	api.On("CreateAPIKey", mock.Anything, mock.Anything, "ci").Return(&domain.CreatedAPIKey{ID: "k2", Name: "ci", Key: "sk_live"}, nil)

	created, err := svc.Create(context.Background(), newClientContext(), " ci ")
	require.NoError(t, err)
	assert.Equal(t, "sk_live", created.Key)
}

// --- NoticeBoard ---

func TestNoticeBoard_KeepsMostRecent(t *testing.T) {
	board := service.NewNoticeBoard()
	for i := 0; i < 60; i++ {
		board.Add(domain.NoticeJobNotFound, fmt.Sprintf("j%d", i), "gone")
	}

	notices := board.List()
	require.Len(t, notices, 50)
	assert.Equal(t, "j10", notices[0].Subject)
	assert.Equal(t, "j59", notices[49].Subject)

	board.Clear()
	assert.Empty(t, board.List())
}

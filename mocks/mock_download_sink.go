package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docdesk/internal/port"
)

// MockDownloadSink is a mock implementation of port.DownloadSink.
type MockDownloadSink struct {
	mock.Mock
}

func (m *MockDownloadSink) Save(ctx context.Context, input port.SaveInput) (*port.SaveOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.SaveOutput), args.Error(1)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docdesk/internal/domain"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BatchFinished(ctx context.Context, batch *domain.Batch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

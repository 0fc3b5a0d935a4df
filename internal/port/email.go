package port

import (
	"context"

	"docdesk/internal/domain"
)

// Notifier delivers batch completion notices.
type Notifier interface {
	BatchFinished(ctx context.Context, batch *domain.Batch) error
}

package noop

import (
	"context"
	"log"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a Notifier that only logs batch completions.
func NewNoopNotifier() port.Notifier {
	return &noopNotifier{}
}

func (n *noopNotifier) BatchFinished(_ context.Context, batch *domain.Batch) error {
	log.Printf("[NOOP NOTIFY] Batch %s %s: %d/%d completed, %d failed",
		batch.ID, batch.Status, batch.Progress.Completed, batch.Progress.Total, batch.Progress.Failed)
	return nil
}

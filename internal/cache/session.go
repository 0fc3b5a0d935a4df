package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"docdesk/internal/port"
)

// KeySessionID holds the current cache session in the persistent local namespace.
const KeySessionID = "docdesk_session_id"

// Namespace returns the store namespace for a cache session.
func Namespace(sessionID string) string {
	return "session:" + sessionID
}

// CurrentSession returns the pinned session id when set, otherwise the persisted one,
// starting a new session when none exists yet.
func CurrentSession(ctx context.Context, local port.KeyValueStore, pinned string) (string, error) {
	if pinned != "" {
		return pinned, nil
	}
	b, err := local.Get(ctx, KeySessionID)
	switch {
	case err == nil && len(b) > 0:
		return string(b), nil
	case err != nil && !errors.Is(err, port.ErrKeyNotFound):
		return "", fmt.Errorf("reading session id: %w", err)
	}
	return ResetSession(ctx, local)
}

// ResetSession starts a new cache session. Snapshots of the previous session stay in the
// store but are no longer visible.
func ResetSession(ctx context.Context, local port.KeyValueStore) (string, error) {
	id := uuid.New().String()
	if err := local.Set(ctx, KeySessionID, []byte(id)); err != nil {
		return "", fmt.Errorf("persisting session id: %w", err)
	}
	return id, nil
}

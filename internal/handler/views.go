package handler

import (
	"errors"
	"sync"

	"docdesk/internal/domain"
	"docdesk/internal/recon"
	"docdesk/internal/service"
)

// JobState is the dashboard view of one job. Loading is set while a poll is in flight and
// Error carries the reason the last poll stopped early.
type JobState struct {
	Job             *domain.Job    `json:"job"`
	Reconciliations []recon.Result `json:"reconciliations,omitempty"`
	Loading         bool           `json:"loading"`
	Error           string         `json:"error,omitempty"`
}

// BatchState is the dashboard view of one batch.
type BatchState struct {
	Batch             *domain.Batch `json:"batch"`
	CompletionPercent int           `json:"completion_percent"`
	Loading           bool          `json:"loading"`
	Error             string        `json:"error,omitempty"`
}

// JobListState is the dashboard view of the recent job list.
type JobListState struct {
	*service.JobList
	Error string `json:"error,omitempty"`
}

// handles remembers the latest poll handle per identifier so later requests can report
// its loading and error state.
type handles[T any] struct {
	mu sync.Mutex
	m  map[string]*service.PollHandle[T]
}

func newHandles[T any]() *handles[T] {
	return &handles[T]{m: make(map[string]*service.PollHandle[T])}
}

func (r *handles[T]) put(h *service.PollHandle[T]) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.m[h.ID()] = h
	r.mu.Unlock()
}

func (r *handles[T]) get(id string) *service.PollHandle[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[id]
}

func (r *handles[T]) drop(id string) {
	r.mu.Lock()
	delete(r.m, id)
	r.mu.Unlock()
}

func (r *handles[T]) clear() {
	r.mu.Lock()
	r.m = make(map[string]*service.PollHandle[T])
	r.mu.Unlock()
}

// pollState reports whether h is still running and why it stopped early, if it did.
// A poll stopped on request is not an error.
func pollState[T any](h *service.PollHandle[T]) (loading bool, msg string) {
	if h == nil {
		return false, ""
	}
	if h.Active() {
		return true, ""
	}
	if err := h.Err(); err != nil && !errors.Is(err, domain.ErrPollCanceled) {
		return false, ErrorMessage(err)
	}
	return false, ""
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"docdesk/internal/domain"
)

// Default attempt budgets.
const (
	SingleJobMaxAttempts = 30
	SingleJobInterval    = time.Second
	BatchMaxAttempts     = 60
	BatchInterval        = 2 * time.Second
)

// PollOptions bounds a poll loop. Zero values take the defaults of the lifecycle.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

func (o PollOptions) orDefault(attempts int, interval time.Duration) PollOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = attempts
	}
	if o.Interval <= 0 {
		o.Interval = interval
	}
	return o
}

// PollHandle is a running (or finished) poll loop for one identifier. Several callers may
// share a handle; Stop cancels the loop for all of them.
type PollHandle[T any] struct {
	id       string
	tracker  *tracker[T]
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu   sync.Mutex
	snap *T
	err  error

	// stopped is guarded by tracker.mu.
	stopped bool
}

func newHandle[T any](id string, t *tracker[T]) *PollHandle[T] {
	return &PollHandle[T]{
		id:      id,
		tracker: t,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// completedHandle returns a handle that finished with snap without running a loop.
func completedHandle[T any](id string, snap *T) *PollHandle[T] {
	h := newHandle[T](id, nil)
	h.snap = snap
	close(h.done)
	return h
}

// ID returns the polled identifier.
func (h *PollHandle[T]) ID() string { return h.id }

// Done is closed when the loop has ended.
func (h *PollHandle[T]) Done() <-chan struct{} { return h.done }

// Active reports whether the loop is still running.
func (h *PollHandle[T]) Active() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Snapshot returns the latest observed value, nil before the first successful fetch.
func (h *PollHandle[T]) Snapshot() *T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Err returns why the loop ended, nil while running or after reaching a terminal state.
func (h *PollHandle[T]) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stop cancels the loop. No cache write happens after Stop returns.
func (h *PollHandle[T]) Stop() {
	h.stopOnce.Do(func() {
		if h.tracker != nil {
			h.tracker.detach(h)
		}
		close(h.stop)
	})
}

// Wait blocks until the loop ends or ctx is done, and returns the last snapshot with the
// loop's error (or ctx.Err()).
func (h *PollHandle[T]) Wait(ctx context.Context) (*T, error) {
	select {
	case <-h.done:
		return h.Snapshot(), h.Err()
	case <-ctx.Done():
		return h.Snapshot(), ctx.Err()
	}
}

func (h *PollHandle[T]) set(v *T) {
	h.mu.Lock()
	h.snap = v
	h.mu.Unlock()
}

func (h *PollHandle[T]) fail(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *PollHandle[T]) halted(ctx context.Context) bool {
	select {
	case <-h.stop:
		return true
	default:
	}
	return ctx.Err() != nil
}

// tracker owns the live poll loops of one resource kind. At most one loop runs per id, and
// only the registered, unstopped loop for an id may write to the cache.
type tracker[T any] struct {
	kind string

	mu       sync.Mutex
	active   map[string]*PollHandle[T]
	terminal map[string]*T
}

func newTracker[T any](kind string) *tracker[T] {
	return &tracker[T]{
		kind:     kind,
		active:   make(map[string]*PollHandle[T]),
		terminal: make(map[string]*T),
	}
}

// start registers a new handle for id, or returns the live one with started=false.
func (t *tracker[T]) start(id string) (h *PollHandle[T], started bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if live, ok := t.active[id]; ok {
		return live, false
	}
	h = newHandle(id, t)
	t.active[id] = h
	return h, true
}

func (t *tracker[T]) detach(h *PollHandle[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h.stopped = true
	if t.active[h.id] == h {
		delete(t.active, h.id)
	}
}

func (t *tracker[T]) finish(h *PollHandle[T]) {
	t.mu.Lock()
	if t.active[h.id] == h {
		delete(t.active, h.id)
	}
	t.mu.Unlock()
	close(h.done)
}

// commit runs fn only while h is the registered, unstopped loop for its id.
func (t *tracker[T]) commit(h *PollHandle[T], fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h.stopped || t.active[h.id] != h {
		return false
	}
	fn()
	return true
}

func (t *tracker[T]) tracking(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[id]
	return ok
}

func (t *tracker[T]) stopAllExcept(keep string) {
	t.mu.Lock()
	var victims []*PollHandle[T]
	for id, h := range t.active {
		if id != keep {
			victims = append(victims, h)
		}
	}
	t.mu.Unlock()

	for _, h := range victims {
		h.Stop()
	}
}

func (t *tracker[T]) release(id string) {
	t.mu.Lock()
	h := t.active[id]
	t.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

func (t *tracker[T]) remember(id string, snap *T) {
	t.mu.Lock()
	t.terminal[id] = snap
	t.mu.Unlock()
}

func (t *tracker[T]) terminalFor(id string) *T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminal[id]
}

// reset stops every loop and forgets every terminal snapshot.
func (t *tracker[T]) reset() {
	t.stopAllExcept("")
	t.mu.Lock()
	t.terminal = make(map[string]*T)
	t.mu.Unlock()
}

// pollSpec describes how to observe one resource.
type pollSpec[T any] struct {
	opts       PollOptions
	fetch      func(ctx context.Context) (*T, error)
	isTerminal func(*T) bool
	// store persists a successful observation; it runs under the tracker lock.
	store func(ctx context.Context, v *T)
	// onNotFound runs under the tracker lock when the service reports 404.
	onNotFound func(ctx context.Context)
	// onTerminal runs once, outside the lock, after a terminal observation was stored.
	onTerminal func(ctx context.Context, v *T)
}

// run drives h until a terminal observation, an error, cancellation or an exhausted budget.
func (t *tracker[T]) run(ctx context.Context, h *PollHandle[T], s pollSpec[T]) {
	defer t.finish(h)

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		if h.halted(ctx) {
			h.fail(domain.ErrPollCanceled)
			return
		}

		v, err := s.fetch(ctx)
		if err != nil {
			if h.halted(ctx) {
				h.fail(domain.ErrPollCanceled)
				return
			}
			if errors.Is(err, domain.ErrNotFound) {
				log.Printf("pollTracker: %s %s not found on attempt %d", t.kind, h.id, attempt)
				if s.onNotFound != nil {
					t.commit(h, func() { s.onNotFound(ctx) })
				}
			} else {
				log.Printf("pollTracker: %s %s attempt %d failed: %v", t.kind, h.id, attempt, err)
			}
			h.fail(err)
			return
		}

		if !t.commit(h, func() {
			s.store(ctx, v)
			h.set(v)
		}) {
			h.fail(domain.ErrPollCanceled)
			return
		}

		if s.isTerminal(v) {
			t.remember(h.id, v)
			if s.onTerminal != nil {
				s.onTerminal(ctx, v)
			}
			return
		}

		if attempt == s.opts.MaxAttempts {
			break
		}
		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-h.stop:
			timer.Stop()
			h.fail(domain.ErrPollCanceled)
			return
		case <-ctx.Done():
			timer.Stop()
			h.fail(domain.ErrPollCanceled)
			return
		case <-timer.C:
		}
	}

	log.Printf("pollTracker: %s %s still not terminal after %d attempts", t.kind, h.id, s.opts.MaxAttempts)
	h.fail(fmt.Errorf("%w: %s %s after %d attempts", domain.ErrPollTimeout, t.kind, h.id, s.opts.MaxAttempts))
}

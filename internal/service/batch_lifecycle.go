package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

// BatchFileInput is one member of a batch submission.
type BatchFileInput struct {
	Filename string
	Content  io.Reader
}

// SubmitBatchInput is a set of documents submitted together.
type SubmitBatchInput struct {
	Files    []BatchFileInput
	Name     string
	ClientID string
	DocType  string
}

// BatchLifecycle submits batches, observes them until terminal and hands batch exports to
// the download sink.
type BatchLifecycle interface {
	Submit(ctx context.Context, cc *ClientContext, input SubmitBatchInput) (*domain.Batch, error)
	Fetch(ctx context.Context, cc *ClientContext, batchID string) (*domain.Batch, error)
	Poll(ctx context.Context, cc *ClientContext, batchID string, opts PollOptions) *PollHandle[domain.Batch]
	LoadCached(ctx context.Context, cc *ClientContext, batchID string) *domain.Batch
	Export(ctx context.Context, cc *ClientContext, batchID string, format domain.BatchExportFormat) (*port.SaveOutput, error)
	Release(batchID string)
	Tracking(batchID string) bool
	StopAll()
	// Reset stops every loop and forgets which batches were seen finishing.
	Reset()
}

type batchLifecycle struct {
	api      port.DocParserAPI
	sink     port.DownloadSink
	notifier port.Notifier
	polls    *tracker[domain.Batch]

	mu       sync.Mutex
	notified map[string]bool
}

// NewBatchLifecycle creates a BatchLifecycle. notifier may be nil.
func NewBatchLifecycle(api port.DocParserAPI, sink port.DownloadSink, notifier port.Notifier) BatchLifecycle {
	return &batchLifecycle{
		api:      api,
		sink:     sink,
		notifier: notifier,
		polls:    newTracker[domain.Batch]("batch"),
		notified: make(map[string]bool),
	}
}

func (s *batchLifecycle) Submit(ctx context.Context, cc *ClientContext, input SubmitBatchInput) (*domain.Batch, error) {
	if len(input.Files) == 0 {
		return nil, fmt.Errorf("%w: no files selected", domain.ErrInvalidInput)
	}
	files := make([]port.BatchFile, 0, len(input.Files))
	for _, f := range input.Files {
		contentType, err := domain.ContentTypeFor(f.Filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, f.Filename)
		}
		if f.Content == nil {
			return nil, fmt.Errorf("%w: no content for %s", domain.ErrInvalidInput, f.Filename)
		}
		files = append(files, port.BatchFile{Filename: f.Filename, ContentType: contentType, Content: f.Content})
	}
	docType, err := normalizeHint(input.DocType)
	if err != nil {
		return nil, err
	}

	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}

	batch, err := s.api.SubmitBatch(ctx, ep, port.BatchSubmitInput{
		Files:    files,
		Name:     strings.TrimSpace(input.Name),
		ClientID: strings.TrimSpace(input.ClientID),
		DocType:  docType,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResponse) {
			return nil, err
		}
		log.Printf("batchLifecycle: submitting %d files: %v", len(files), err)
		return nil, &domain.SubmissionError{Err: err}
	}

	cc.Cache.StoreBatch(ctx, batch)
	log.Printf("batchLifecycle: submitted %d files as batch %s", len(files), batch.ID)
	return batch, nil
}

func (s *batchLifecycle) Fetch(ctx context.Context, cc *ClientContext, batchID string) (*domain.Batch, error) {
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := s.api.GetBatch(ctx, ep, batchID)
	if err != nil {
		return nil, err
	}
	cc.Cache.StoreBatch(ctx, batch)
	return batch, nil
}

// Poll observes batchID until it is completed or failed. A finished batch is announced once
// through the notifier.
func (s *batchLifecycle) Poll(ctx context.Context, cc *ClientContext, batchID string, opts PollOptions) *PollHandle[domain.Batch] {
	opts = opts.orDefault(BatchMaxAttempts, BatchInterval)

	if snap := s.polls.terminalFor(batchID); snap != nil {
		return completedHandle(batchID, snap)
	}
	if cached := cc.Cache.LoadBatch(ctx, batchID); cached != nil && cached.Status.IsTerminal() {
		s.polls.remember(batchID, cached)
		return completedHandle(batchID, cached)
	}

	h, started := s.polls.start(batchID)
	if !started {
		return h
	}

	go s.polls.run(ctx, h, pollSpec[domain.Batch]{
		opts: opts,
		fetch: func(ctx context.Context) (*domain.Batch, error) {
			ep, err := cc.Endpoint(ctx)
			if err != nil {
				return nil, err
			}
			return s.api.GetBatch(ctx, ep, batchID)
		},
		isTerminal: func(b *domain.Batch) bool { return b.Status.IsTerminal() },
		store: func(ctx context.Context, b *domain.Batch) {
			cc.Cache.StoreBatch(ctx, b)
		},
		onNotFound: func(ctx context.Context) {
			cc.Cache.EvictBatch(ctx, batchID)
			cc.notify(domain.NoticeBatchNotFound, batchID, fmt.Sprintf("Batch %s no longer exists on the parsing service.", batchID))
		},
		onTerminal: func(ctx context.Context, b *domain.Batch) {
			s.announce(ctx, cc, b)
		},
	})
	return h
}

func (s *batchLifecycle) announce(ctx context.Context, cc *ClientContext, b *domain.Batch) {
	s.mu.Lock()
	if s.notified[b.ID] {
		s.mu.Unlock()
		return
	}
	s.notified[b.ID] = true
	s.mu.Unlock()

	cc.notify(domain.NoticeBatchFinished, b.ID, fmt.Sprintf("Batch %s %s: %d of %d files parsed, %d failed.",
		b.ID, b.Status, b.Progress.Completed, b.Progress.Total, b.Progress.Failed))

	if s.notifier == nil {
		return
	}
	if err := s.notifier.BatchFinished(ctx, b); err != nil {
		log.Printf("batchLifecycle: notifying batch %s: %v", b.ID, err)
	}
}

func (s *batchLifecycle) LoadCached(ctx context.Context, cc *ClientContext, batchID string) *domain.Batch {
	return cc.Cache.LoadBatch(ctx, batchID)
}

// Export downloads a batch export and hands the body to the sink unchanged.
func (s *batchLifecycle) Export(ctx context.Context, cc *ClientContext, batchID string, format domain.BatchExportFormat) (*port.SaveOutput, error) {
	if batchID == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrInvalidInput)
	}
	if format == "" {
		format = domain.BatchExportJSON
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: unknown batch export format %q", domain.ErrInvalidInput, format)
	}

	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	file, err := s.api.ExportBatch(ctx, ep, batchID, format)
	if err != nil {
		return nil, err
	}
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

func (s *batchLifecycle) Release(batchID string) {
	s.polls.release(batchID)
}

func (s *batchLifecycle) Tracking(batchID string) bool {
	return s.polls.tracking(batchID)
}

func (s *batchLifecycle) StopAll() {
	s.polls.stopAllExcept("")
}

func (s *batchLifecycle) Reset() {
	s.polls.reset()
	s.mu.Lock()
	s.notified = make(map[string]bool)
	s.mu.Unlock()
}

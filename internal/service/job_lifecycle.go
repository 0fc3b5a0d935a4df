package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"docdesk/internal/domain"
	"docdesk/internal/port"
	"docdesk/internal/recon"
)

// SubmitJobInput is one document picked by the user.
type SubmitJobInput struct {
	Filename string
	Content  io.Reader
	// DocTypeHint forces a document type; empty or "auto" lets the service detect it.
	DocTypeHint string
}

// JobList is the result of listing recent jobs.
type JobList struct {
	Jobs []domain.Job `json:"jobs"`
	// FromCache is set when the service could not be reached and Jobs is the cached list.
	FromCache bool `json:"from_cache"`
	// EnvironmentMismatch is set when the cache was wiped because the service no longer
	// knows the cached jobs.
	EnvironmentMismatch bool `json:"environment_mismatch"`
}

// JobView is what a job detail screen paints before the first poll result arrives.
type JobView struct {
	Job             *domain.Job    `json:"job"`
	Reconciliations []recon.Result `json:"reconciliations"`
}

// JobLifecycle submits jobs, observes them until terminal and keeps the cache in step.
type JobLifecycle interface {
	Submit(ctx context.Context, cc *ClientContext, input SubmitJobInput) (*domain.Job, error)
	Fetch(ctx context.Context, cc *ClientContext, jobID string) (*domain.Job, error)
	Poll(ctx context.Context, cc *ClientContext, jobID string, opts PollOptions) *PollHandle[domain.Job]
	LoadCached(ctx context.Context, cc *ClientContext, jobID string) *domain.Job
	ListJobs(ctx context.Context, cc *ClientContext, limit int) (*JobList, error)
	Select(ctx context.Context, cc *ClientContext, jobID string) (*JobView, *PollHandle[domain.Job])
	Resume(ctx context.Context, cc *ClientContext) (*JobView, *PollHandle[domain.Job])
	Release(jobID string)
	Tracking(jobID string) bool
	StopAll()
}

// Resetter is implemented by lifecycles whose loops and memos must not outlive a cache wipe.
type Resetter interface {
	Reset()
}

type jobLifecycle struct {
	api       port.DocParserAPI
	listLimit int
	polls     *tracker[domain.Job]
	linked    []Resetter
}

// NewJobLifecycle creates a JobLifecycle. listLimit is used when ListJobs is called without one.
// linked lifecycles are reset together with this one when an environment mismatch wipes the
// cache.
func NewJobLifecycle(api port.DocParserAPI, listLimit int, linked ...Resetter) JobLifecycle {
	if listLimit <= 0 {
		listLimit = 10
	}
	return &jobLifecycle{
		api:       api,
		listLimit: listLimit,
		polls:     newTracker[domain.Job]("job"),
		linked:    linked,
	}
}

func (s *jobLifecycle) Submit(ctx context.Context, cc *ClientContext, input SubmitJobInput) (*domain.Job, error) {
	contentType, err := domain.ContentTypeFor(input.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, input.Filename)
	}
	if input.Content == nil {
		return nil, fmt.Errorf("%w: no file content", domain.ErrInvalidInput)
	}
	hint, err := normalizeHint(input.DocTypeHint)
	if err != nil {
		return nil, err
	}

	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}

	job, err := s.api.SubmitJob(ctx, ep, port.SubmitInput{
		Filename:    input.Filename,
		ContentType: contentType,
		Content:     input.Content,
		DocTypeHint: hint,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidResponse) {
			return nil, err
		}
		log.Printf("jobLifecycle: submitting %s: %v", input.Filename, err)
		return nil, &domain.SubmissionError{Err: err}
	}

	cc.Cache.StoreJob(ctx, job)
	cc.Cache.SetLastViewed(ctx, job.ID)
	log.Printf("jobLifecycle: submitted %s as job %s", input.Filename, job.ID)
	return job, nil
}

func normalizeHint(hint string) (string, error) {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" || hint == "auto" {
		return "", nil
	}
	if !slices.Contains(domain.DocTypeHints, hint) {
		return "", fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, hint)
	}
	return hint, nil
}

func (s *jobLifecycle) Fetch(ctx context.Context, cc *ClientContext, jobID string) (*domain.Job, error) {
	ep, err := cc.Endpoint(ctx)
	if err != nil {
		return nil, err
	}
	job, err := s.api.GetJob(ctx, ep, jobID)
	if err != nil {
		return nil, err
	}
	cc.Cache.StoreJob(ctx, job)
	return job, nil
}

// Poll observes jobID until it is terminal. A job already known to be terminal completes
// immediately without contacting the service. ctx bounds the whole loop, so callers tied to
// a short-lived request should detach it first.
func (s *jobLifecycle) Poll(ctx context.Context, cc *ClientContext, jobID string, opts PollOptions) *PollHandle[domain.Job] {
	opts = opts.orDefault(SingleJobMaxAttempts, SingleJobInterval)

	if snap := s.polls.terminalFor(jobID); snap != nil {
		return completedHandle(jobID, snap)
	}
	if cached := cc.Cache.LoadJob(ctx, jobID); cached != nil && cached.Status.IsTerminal() {
		s.polls.remember(jobID, cached)
		return completedHandle(jobID, cached)
	}

	h, started := s.polls.start(jobID)
	if !started {
		return h
	}

	go s.polls.run(ctx, h, pollSpec[domain.Job]{
		opts: opts,
		fetch: func(ctx context.Context) (*domain.Job, error) {
			ep, err := cc.Endpoint(ctx)
			if err != nil {
				return nil, err
			}
			return s.api.GetJob(ctx, ep, jobID)
		},
		isTerminal: func(j *domain.Job) bool { return j.Status.IsTerminal() },
		store: func(ctx context.Context, j *domain.Job) {
			cc.Cache.StoreJob(ctx, j)
			cc.Cache.RefreshListRow(ctx, j)
		},
		onNotFound: func(ctx context.Context) {
			cc.Cache.EvictJob(ctx, jobID)
			cc.notify(domain.NoticeJobNotFound, jobID, fmt.Sprintf("Job %s no longer exists on the parsing service.", jobID))
		},
	})
	return h
}

func (s *jobLifecycle) LoadCached(ctx context.Context, cc *ClientContext, jobID string) *domain.Job {
	return cc.Cache.LoadJob(ctx, jobID)
}

func (s *jobLifecycle) ListJobs(ctx context.Context, cc *ClientContext, limit int) (*JobList, error) {
	if limit <= 0 {
		limit = s.listLimit
	}
	cached, hadCache := cc.Cache.LoadJobList(ctx)

	ep, err := cc.Endpoint(ctx)
	var jobs []domain.Job
	if err == nil {
		jobs, err = s.api.ListJobs(ctx, ep, limit)
	}
	if err != nil {
		log.Printf("jobLifecycle: listing jobs, serving cached list: %v", err)
		return &JobList{Jobs: cached, FromCache: true}, err
	}

	if hadCache && len(cached) > 0 && len(jobs) == 0 {
		log.Printf("jobLifecycle: %d cached jobs unknown to %s, invalidating cache", len(cached), ep.BaseURL)
		s.polls.reset()
		for _, r := range s.linked {
			r.Reset()
		}
		cc.Cache.Invalidate(ctx)
		cc.Cache.StoreJobList(ctx, jobs)
		cc.notify(domain.NoticeEnvironmentMismatch, ep.BaseURL,
			"Cached jobs are not known to the current parsing service; local data was cleared.")
		return &JobList{Jobs: []domain.Job{}, EnvironmentMismatch: true}, nil
	}

	if jobs == nil {
		jobs = []domain.Job{}
	}
	cc.Cache.StoreJobList(ctx, jobs)
	return &JobList{Jobs: jobs}, nil
}

// Select makes jobID the job being viewed: polls for other jobs stop, the cached snapshot is
// returned for painting and a poll is started or joined.
func (s *jobLifecycle) Select(ctx context.Context, cc *ClientContext, jobID string) (*JobView, *PollHandle[domain.Job]) {
	s.polls.stopAllExcept(jobID)
	cc.Cache.SetLastViewed(ctx, jobID)
	return s.view(ctx, cc, jobID), s.Poll(ctx, cc, jobID, PollOptions{})
}

// Resume selects the last viewed job, if any.
func (s *jobLifecycle) Resume(ctx context.Context, cc *ClientContext) (*JobView, *PollHandle[domain.Job]) {
	id := cc.Cache.LastViewed(ctx)
	if id == "" {
		return nil, nil
	}
	return s.Select(ctx, cc, id)
}

func (s *jobLifecycle) view(ctx context.Context, cc *ClientContext, jobID string) *JobView {
	v := &JobView{Job: cc.Cache.LoadJob(ctx, jobID)}
	if v.Job != nil {
		v.Reconciliations = recon.FromMeta(v.Job.Meta)
	}
	return v
}

func (s *jobLifecycle) Release(jobID string) {
	s.polls.release(jobID)
}

func (s *jobLifecycle) Tracking(jobID string) bool {
	return s.polls.tracking(jobID)
}

func (s *jobLifecycle) StopAll() {
	s.polls.stopAllExcept("")
}

// Package cache keeps the latest observed job and batch snapshots for the current session.
//
// Entries are overwritten on every successful observation and never merged. Read and write
// failures are logged and otherwise ignored: the cache is an optimization, never a source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"

	"docdesk/internal/domain"
	"docdesk/internal/port"
)

const (
	KeyJobsList   = "docparser_jobs_list"
	KeyLastViewed = "lastViewedJobId"

	keyPrefix      = "docparser_"
	jobKeyPrefix   = "docparser_job_"
	batchKeyPrefix = "docparser_batch_"
)

// JobKey returns the cache key for a single job snapshot.
func JobKey(id string) string { return jobKeyPrefix + id }

// BatchKey returns the cache key for a single batch snapshot.
func BatchKey(id string) string { return batchKeyPrefix + id }

// Cache is a typed view over a session-scoped KeyValueStore.
type Cache struct {
	store port.KeyValueStore

	// listMu serializes every write to KeyJobsList, including read-modify-write updates.
	listMu sync.Mutex
}

// New creates a Cache backed by store.
func New(store port.KeyValueStore) *Cache {
	return &Cache{store: store}
}

// LoadJob returns the cached snapshot for id, or nil when absent or unreadable.
func (c *Cache) LoadJob(ctx context.Context, id string) *domain.Job {
	var job domain.Job
	if !c.load(ctx, JobKey(id), &job) || job.ID == "" {
		return nil
	}
	return &job
}

// StoreJob overwrites the cached snapshot for job.
func (c *Cache) StoreJob(ctx context.Context, job *domain.Job) {
	if job == nil || job.ID == "" {
		return
	}
	c.save(ctx, JobKey(job.ID), job)
}

// EvictJob drops the job's snapshot and its row in the cached job list.
func (c *Cache) EvictJob(ctx context.Context, id string) {
	c.delete(ctx, JobKey(id))

	c.listMu.Lock()
	if jobs, ok := c.LoadJobList(ctx); ok {
		kept := jobs[:0]
		for i := range jobs {
			if jobs[i].ID != id {
				kept = append(kept, jobs[i])
			}
		}
		if len(kept) != len(jobs) {
			c.saveJobList(ctx, kept)
		}
	}
	c.listMu.Unlock()

	if c.LastViewed(ctx) == id {
		c.delete(ctx, KeyLastViewed)
	}
}

// LoadJobList returns the cached job list. ok is false when nothing readable is cached.
func (c *Cache) LoadJobList(ctx context.Context) (jobs []domain.Job, ok bool) {
	if !c.load(ctx, KeyJobsList, &jobs) {
		return nil, false
	}
	return jobs, true
}

// StoreJobList overwrites the cached job list.
func (c *Cache) StoreJobList(ctx context.Context, jobs []domain.Job) {
	c.listMu.Lock()
	defer c.listMu.Unlock()
	c.saveJobList(ctx, jobs)
}

func (c *Cache) saveJobList(ctx context.Context, jobs []domain.Job) {
	if jobs == nil {
		jobs = []domain.Job{}
	}
	c.save(ctx, KeyJobsList, jobs)
}

// RefreshListRow copies the status and doc type of job onto its row in the cached list.
// The read and the write back happen under the list lock, so a concurrent StoreJobList is
// never overwritten by the copy read here.
func (c *Cache) RefreshListRow(ctx context.Context, job *domain.Job) {
	if job == nil {
		return
	}
	c.listMu.Lock()
	defer c.listMu.Unlock()

	jobs, ok := c.LoadJobList(ctx)
	if !ok {
		return
	}
	for i := range jobs {
		if jobs[i].ID != job.ID {
			continue
		}
		if jobs[i].Status == job.Status && (job.DocType == nil || equalPtr(jobs[i].DocType, job.DocType)) {
			return
		}
		jobs[i].Status = job.Status
		if job.DocType != nil {
			jobs[i].DocType = job.DocType
		}
		c.saveJobList(ctx, jobs)
		return
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// LoadBatch returns the cached snapshot for id, or nil when absent or unreadable.
func (c *Cache) LoadBatch(ctx context.Context, id string) *domain.Batch {
	var batch domain.Batch
	if !c.load(ctx, BatchKey(id), &batch) || batch.ID == "" {
		return nil
	}
	return &batch
}

// StoreBatch overwrites the cached snapshot for batch.
func (c *Cache) StoreBatch(ctx context.Context, batch *domain.Batch) {
	if batch == nil || batch.ID == "" {
		return
	}
	c.save(ctx, BatchKey(batch.ID), batch)
}

// EvictBatch drops the batch's snapshot.
func (c *Cache) EvictBatch(ctx context.Context, id string) {
	c.delete(ctx, BatchKey(id))
}

// LastViewed returns the id of the job most recently shown, or "".
func (c *Cache) LastViewed(ctx context.Context) string {
	b, err := c.store.Get(ctx, KeyLastViewed)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			log.Printf("cache: reading %s: %v", KeyLastViewed, err)
		}
		return ""
	}
	return string(b)
}

// SetLastViewed records the job most recently shown.
func (c *Cache) SetLastViewed(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := c.store.Set(ctx, KeyLastViewed, []byte(id)); err != nil {
		log.Printf("cache: writing %s: %v", KeyLastViewed, err)
	}
}

// Invalidate removes the job list, the last viewed marker and every job and batch snapshot.
func (c *Cache) Invalidate(ctx context.Context) {
	c.listMu.Lock()
	defer c.listMu.Unlock()

	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		log.Printf("cache: listing keys: %v", err)
	}
	for _, k := range keys {
		if k == KeyJobsList || strings.HasPrefix(k, jobKeyPrefix) || strings.HasPrefix(k, batchKeyPrefix) {
			c.delete(ctx, k)
		}
	}
	c.delete(ctx, KeyJobsList)
	c.delete(ctx, KeyLastViewed)
}

func (c *Cache) load(ctx context.Context, key string, dst any) bool {
	b, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			log.Printf("cache: reading %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		log.Printf("cache: ignoring unreadable entry %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("cache: encoding %s: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, key, b); err != nil {
		log.Printf("cache: writing %s: %v", key, err)
	}
}

func (c *Cache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		log.Printf("cache: deleting %s: %v", key, err)
	}
}

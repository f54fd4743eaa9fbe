// Package batch tracks batch jobs: it splits submitted trips into queued tasks,
// queues each distinct pending trip once, and collects results per job.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/stipend/internal/domain/dedupe"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

const defaultRetention = 256

// Keyer validates a trip and returns its identity.
type Keyer interface {
	TripKey(trip model.TripRequest) (string, error)
}

// Enqueuer accepts tasks for the worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, t model.Task) error
}

type itemRef struct {
	job   string
	index int
}

// Tracker owns job state. It is safe for concurrent use.
type Tracker struct {
	keys      Keyer
	queue     Enqueuer
	pending   dedupe.Deduper
	retention int
	now       func() time.Time
	newID     func() string
	log       logger.Logger

	mu      sync.Mutex
	jobs    map[string]*model.Job
	order   []string
	waiters map[string][]itemRef
}

// NewTracker creates a Tracker that queues work on q.
func NewTracker(keys Keyer, q Enqueuer, opts ...Option) *Tracker {
	t := &Tracker{
		keys:      keys,
		queue:     q,
		pending:   dedupe.NewInMemoryDeduper(),
		retention: defaultRetention,
		now:       time.Now,
		newID:     uuid.NewString,
		log:       logger.Nop(),
		jobs:      make(map[string]*model.Job),
		waiters:   make(map[string][]itemRef),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit registers a job for trips. Every trip is validated first; one invalid
// trip rejects the whole job. A trip identical to one already pending is not
// queued again and receives that trip's result.
func (t *Tracker) Submit(ctx context.Context, trips []model.TripRequest) (model.Job, error) {
	if len(trips) == 0 {
		return model.Job{}, ErrEmptyBatch
	}
	keys := make([]string, len(trips))
	for i, trip := range trips {
		k, err := t.keys.TripKey(trip)
		if err != nil {
			return model.Job{}, fmt.Errorf("trip %d: %w", i, err)
		}
		keys[i] = k
	}

	job := &model.Job{
		ID:        t.newID(),
		Status:    model.JobQueued,
		Submitted: t.now(),
		Total:     len(trips),
		Items:     make([]model.JobItem, len(trips)),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.jobs[job.ID] = job
	t.order = append(t.order, job.ID)

	queued, shared := 0, 0
	for i, trip := range trips {
		key := keys[i]
		job.Items[i] = model.JobItem{Trip: trip, Key: key, Status: model.ItemPending}
		t.waiters[key] = append(t.waiters[key], itemRef{job: job.ID, index: i})

		if t.pending.SeenAndRecord(ctx, key) {
			shared++
			continue
		}
		if err := t.queue.Enqueue(ctx, model.Task{Key: key, Trip: trip}); err != nil {
			t.pending.Unrecord(ctx, key)
			t.finishLocked(key, nil, fmt.Errorf("not queued: %w", err))
			continue
		}
		queued++
	}

	t.log.Info(ctx, "batch job submitted",
		logger.String("job_id", job.ID),
		logger.Int("trips", job.Total),
		logger.Int("queued", queued),
		logger.Int("shared", shared))

	t.pruneLocked()
	return cloneJob(job), nil
}

// Complete records the outcome for every pending item with key.
func (t *Tracker) Complete(ctx context.Context, key string, b model.StipendBreakdown, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.finishLocked(key, nil, err)
	} else {
		t.finishLocked(key, &b, nil)
	}
	t.pending.Unrecord(ctx, key)
}

func (t *Tracker) finishLocked(key string, b *model.StipendBreakdown, err error) {
	refs := t.waiters[key]
	delete(t.waiters, key)

	for _, ref := range refs {
		job, ok := t.jobs[ref.job]
		if !ok {
			continue
		}
		item := &job.Items[ref.index]
		if item.Status != model.ItemPending {
			continue
		}
		if err != nil {
			item.Status = model.ItemFailed
			item.Error = err.Error()
			job.Failed++
			metrics.RecordBatchJob(string(model.ItemFailed))
		} else {
			item.Status = model.ItemDone
			item.Breakdown = b
			job.Completed++
			metrics.RecordBatchJob(string(model.ItemDone))
		}

		if job.Done() {
			job.Status = model.JobCompleted
			finished := t.now()
			job.Finished = &finished
		} else {
			job.Status = model.JobRunning
		}
	}
}

// pruneLocked forgets the oldest finished jobs beyond the retention limit.
func (t *Tracker) pruneLocked() {
	finished := 0
	for _, id := range t.order {
		if t.jobs[id].Done() {
			finished++
		}
	}
	if finished <= t.retention {
		return
	}
	kept := t.order[:0]
	for _, id := range t.order {
		if finished > t.retention && t.jobs[id].Done() {
			delete(t.jobs, id)
			finished--
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
}

// Get returns a snapshot of job id.
func (t *Tracker) Get(id string) (model.Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return cloneJob(job), nil
}

// Counts returns the number of tracked jobs per status and the number of pending trips.
func (t *Tracker) Counts() (map[model.JobStatus]int, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := map[model.JobStatus]int{
		model.JobQueued:    0,
		model.JobRunning:   0,
		model.JobCompleted: 0,
	}
	for _, j := range t.jobs {
		out[j.Status]++
	}
	return out, t.pending.Size()
}

func cloneJob(j *model.Job) model.Job {
	c := *j
	c.Items = append([]model.JobItem(nil), j.Items...)
	return c
}

package model

import "time"

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

// Job states.
const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
)

// ItemStatus is the state of one trip in a batch job.
type ItemStatus string

// Item states.
const (
	ItemPending ItemStatus = "pending"
	ItemDone    ItemStatus = "done"
	ItemFailed  ItemStatus = "failed"
)

// Job is a submitted batch of trips.
type Job struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Submitted time.Time  `json:"submitted"`
	Finished  *time.Time `json:"finished,omitempty"`
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Failed    int        `json:"failed"`
	Items     []JobItem  `json:"items"`
}

// Done reports whether every item has finished.
func (j Job) Done() bool { return j.Completed+j.Failed == j.Total }

// JobItem is one trip of a job and, once finished, its outcome.
type JobItem struct {
	Trip      TripRequest       `json:"trip"`
	Key       string            `json:"-"`
	Status    ItemStatus        `json:"status"`
	Breakdown *StipendBreakdown `json:"breakdown,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Task is the unit of work on the batch queue: one distinct trip.
type Task struct {
	Key  string
	Trip TripRequest
}

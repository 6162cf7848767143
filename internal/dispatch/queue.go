package dispatch

import (
	"github.com/BecasLan/BecasScore-sub005/internal/actions"
	"github.com/BecasLan/BecasScore-sub005/internal/models"
)

type JobPriority uint8

const (
	PriorityNormal JobPriority = iota
	PriorityHigh
)

// Job is one enforcement unit: the conditional action to evaluate plus
// the runtime snapshot captured at trigger time.
type Job struct {
	Priority  JobPriority
	WatchID   string
	Action    *models.ConditionalAction
	Runtime   actions.RuntimeContext
	Timestamp int64
}

// Queue is a two-lane bounded queue. High-priority jobs (escalation stages)
// drain before normal watch actions. Enqueue never blocks; a full lane drops
// the job and reports it so the caller can count it.
type Queue struct {
	high   chan *Job
	normal chan *Job
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{
		high:   make(chan *Job, capacity),
		normal: make(chan *Job, capacity),
	}
}

func (q *Queue) Enqueue(job *Job) bool {
	var lane chan *Job
	if job.Priority == PriorityHigh {
		lane = q.high
	} else {
		lane = q.normal
	}

	select {
	case lane <- job:
		return true
	default:
		return false
	}
}

// Dequeue blocks until a job arrives or stop closes, preferring the high
// lane when both hold jobs.
func (q *Queue) Dequeue(stop <-chan struct{}) (*Job, bool) {
	select {
	case job := <-q.high:
		return job, true
	default:
	}

	select {
	case job := <-q.high:
		return job, true
	case job := <-q.normal:
		return job, true
	case <-stop:
		return nil, false
	}
}

func (q *Queue) Size() int {
	return len(q.high) + len(q.normal)
}

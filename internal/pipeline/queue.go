package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrQueueStopped = errors.New("task queue is stopped")
)

// Job is one uploaded video waiting for analysis.
type Job struct {
	TaskID     uuid.UUID
	OwnerID    string
	OwnerEmail string
	VideoPath  string
	Notes      string
}

// Worker processes one job. Returned errors are logged by the queue.
type Worker interface {
	Work(ctx context.Context, job Job) error
}

// Queue runs jobs on a fixed number of worker slots. Inserted jobs wait in
// a bounded backlog; Insert never blocks.
type Queue struct {
	worker     Worker
	maxWorkers int
	jobs       chan Job

	lock     sync.Mutex
	inFlight map[uuid.UUID]struct{}
	stopped  bool

	wg sync.WaitGroup
}

func NewQueue(worker Worker, maxWorkers, backlog int) *Queue {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	return &Queue{
		worker:     worker,
		maxWorkers: maxWorkers,
		jobs:       make(chan Job, backlog),
		inFlight:   make(map[uuid.UUID]struct{}),
	}
}

// Start launches the workers. They run until Stop is called; ctx is handed
// to every job.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.maxWorkers; i++ {
		q.wg.Add(1)
		go func(slot int) {
			defer q.wg.Done()
			for job := range q.jobs {
				q.run(ctx, slot, job)
			}
		}(i)
	}
	zap.S().Named("queue").Infow("task queue started", "workers", q.maxWorkers, "backlog", cap(q.jobs))
}

func (q *Queue) run(ctx context.Context, slot int, job Job) {
	defer q.done(job.TaskID)

	if err := q.worker.Work(ctx, job); err != nil {
		zap.S().Named("queue").Errorw("job failed", "task_id", job.TaskID, "slot", slot, "error", err)
	}
}

// Insert adds job to the backlog. The task counts as in flight from here
// until its worker returns.
func (q *Queue) Insert(job Job) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.stopped {
		return ErrQueueStopped
	}

	select {
	case q.jobs <- job:
		q.inFlight[job.TaskID] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

// InFlight reports whether the task is waiting or running in this process.
func (q *Queue) InFlight(id uuid.UUID) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	_, ok := q.inFlight[id]
	return ok
}

func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.inFlight)
}

func (q *Queue) done(id uuid.UUID) {
	q.lock.Lock()
	defer q.lock.Unlock()
	delete(q.inFlight, id)
}

// Stop refuses new jobs and waits for the queued ones to finish or for ctx
// to expire.
func (q *Queue) Stop(ctx context.Context) error {
	q.lock.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	q.lock.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

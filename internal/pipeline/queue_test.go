package pipeline_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sara-ai/checkin-service/internal/pipeline"
)

type blockingWorker struct {
	release chan struct{}
	running atomic.Int32
	peak    atomic.Int32
	lock    sync.Mutex
	done    []uuid.UUID
}

func (b *blockingWorker) Work(_ context.Context, job pipeline.Job) error {
	n := b.running.Add(1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-b.release
	b.running.Add(-1)

	b.lock.Lock()
	b.done = append(b.done, job.TaskID)
	b.lock.Unlock()
	return nil
}

func (b *blockingWorker) finished() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.done)
}

var _ = Describe("queue", func() {
	var worker *blockingWorker

	BeforeEach(func() {
		worker = &blockingWorker{release: make(chan struct{})}
	})

	It("runs at most the configured number of jobs at once", func() {
		q := pipeline.NewQueue(worker, 2, 10)
		q.Start(context.TODO())

		ids := make([]uuid.UUID, 5)
		for i := range ids {
			ids[i] = uuid.New()
			Expect(q.Insert(pipeline.Job{TaskID: ids[i]})).To(Succeed())
		}

		Eventually(worker.running.Load).Should(BeEquivalentTo(2))
		Consistently(worker.running.Load, 100*time.Millisecond).Should(BeEquivalentTo(2))
		Expect(q.InFlight(ids[4])).To(BeTrue())

		close(worker.release)
		Eventually(worker.finished).Should(Equal(5))
		Expect(worker.peak.Load()).To(BeEquivalentTo(2))
		Eventually(q.Len).Should(BeZero())
		Expect(q.InFlight(ids[0])).To(BeFalse())

		Expect(q.Stop(context.TODO())).To(Succeed())
	})

	It("rejects jobs when the backlog is full", func() {
		q := pipeline.NewQueue(worker, 1, 1)
		q.Start(context.TODO())

		Expect(q.Insert(pipeline.Job{TaskID: uuid.New()})).To(Succeed())
		Eventually(worker.running.Load).Should(BeEquivalentTo(1))

		Expect(q.Insert(pipeline.Job{TaskID: uuid.New()})).To(Succeed())
		rejected := uuid.New()
		Expect(q.Insert(pipeline.Job{TaskID: rejected})).To(MatchError(pipeline.ErrQueueFull))
		Expect(q.InFlight(rejected)).To(BeFalse())

		close(worker.release)
		Expect(q.Stop(context.TODO())).To(Succeed())
		Expect(worker.finished()).To(Equal(2))
	})

	It("refuses jobs once stopped", func() {
		q := pipeline.NewQueue(worker, 1, 1)
		q.Start(context.TODO())
		close(worker.release)

		Expect(q.Stop(context.TODO())).To(Succeed())
		Expect(q.Insert(pipeline.Job{TaskID: uuid.New()})).To(MatchError(pipeline.ErrQueueStopped))
	})

	It("gives up waiting when the stop context expires", func() {
		q := pipeline.NewQueue(worker, 1, 1)
		q.Start(context.TODO())
		Expect(q.Insert(pipeline.Job{TaskID: uuid.New()})).To(Succeed())
		Eventually(worker.running.Load).Should(BeEquivalentTo(1))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		Expect(q.Stop(ctx)).To(MatchError(context.DeadlineExceeded))

		close(worker.release)
	})
})

package events

import (
	"context"
	"encoding/json"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", func() {
	It("sends every event in order", func() {
		w := newTestWriter()
		ep := NewEventProducer(w, WithOutputTopic("test.topic"))

		Expect(ep.Publish(context.TODO(), TaskCompletedKind, TaskCompletedEvent{TaskID: "t1", VideoDeleted: true})).To(Succeed())
		Expect(ep.Publish(context.TODO(), TaskFailedKind, TaskFailedEvent{TaskID: "t2", Message: "Error processing video: boom"})).To(Succeed())

		Eventually(w.Events).Should(HaveLen(2))
		Expect(ep.Close()).To(Succeed())

		events := w.Events()
		Expect(events[0].Type).To(Equal(TaskCompletedKind))
		Expect(events[0].Source).To(Equal(eventSource))
		Expect(events[0].ID).NotTo(BeEmpty())
		Expect(events[1].Type).To(Equal(TaskFailedKind))
		Expect(w.topics).To(ConsistOf("test.topic", "test.topic"))

		var completed TaskCompletedEvent
		Expect(json.Unmarshal(events[0].Data, &completed)).To(Succeed())
		Expect(completed.TaskID).To(Equal("t1"))
		Expect(completed.VideoDeleted).To(BeTrue())
		Expect(w.closed).To(BeTrue())
	})

	It("does not block the caller while the writer is slow", func() {
		w := newTestWriter()
		w.gate = make(chan struct{})
		ep := NewEventProducer(w)

		for i := 0; i < 10; i++ {
			Expect(ep.Write(context.TODO(), TaskCompletedKind, []byte(`{}`))).To(Succeed())
		}

		close(w.gate)
		Eventually(w.Events).Should(HaveLen(10))
		Expect(ep.Close()).To(Succeed())
	})
})

type testwriter struct {
	lock   sync.Mutex
	events []Event
	topics []string
	gate   chan struct{}
	closed bool
}

func newTestWriter() *testwriter {
	return &testwriter{}
}

func (t *testwriter) Events() []Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return append([]Event{}, t.events...)
}

func (t *testwriter) Write(ctx context.Context, topic string, e Event) error {
	if t.gate != nil {
		<-t.gate
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.events = append(t.events, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	t.closed = true
	return nil
}

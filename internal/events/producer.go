package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultTopic string = "checkins.events"

// Writer is the interface to be implemented by the underlying writer.
type Writer interface {
	Write(ctx context.Context, topic string, e Event) error
	Close(ctx context.Context) error
}

// EventProducer puts events in a buffer and sends them from its own
// goroutine so callers never wait on the broker.
type EventProducer struct {
	buffer  *buffer
	notify  chan struct{}
	doneCh  chan struct{}
	stopped chan struct{}
	writer  Writer
	topic   string
}

func NewEventProducer(w Writer, opts ...ProducerOptions) *EventProducer {
	ep := &EventProducer{
		buffer:  newBuffer(),
		notify:  make(chan struct{}, 1),
		doneCh:  make(chan struct{}),
		stopped: make(chan struct{}),
		writer:  w,
		topic:   defaultTopic,
	}

	for _, o := range opts {
		o(ep)
	}

	go ep.run()
	return ep
}

// Publish encodes payload as the data of an event of the given kind.
func (ep *EventProducer) Publish(ctx context.Context, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return ep.Write(ctx, kind, data)
}

func (ep *EventProducer) Write(_ context.Context, kind string, data []byte) error {
	ep.buffer.PushBack(&message{Kind: kind, Data: data})

	select {
	case ep.notify <- struct{}{}:
	default:
	}

	return nil
}

// Close stops the send loop and closes the writer. Pending events are dropped.
func (ep *EventProducer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		close(ep.doneCh)
		<-ep.stopped
		return ep.writer.Close(ctx)
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("event_producer").Errorw("event producer closed with error", "error", err)
		return err
	}

	zap.S().Named("event_producer").Info("event producer closed")

	return nil
}

func (ep *EventProducer) run() {
	defer close(ep.stopped)

	for {
		select {
		case <-ep.doneCh:
			return
		default:
		}

		msg := ep.buffer.Pop()
		if msg == nil {
			select {
			case <-ep.notify:
			case <-ep.doneCh:
				return
			}
			continue
		}

		e := Event{
			ID:     uuid.NewString(),
			Type:   msg.Kind,
			Source: eventSource,
			Time:   time.Now().UTC(),
			Data:   msg.Data,
		}

		if err := ep.writer.Write(context.TODO(), ep.topic, e); err != nil {
			zap.S().Named("event_producer").Errorw("failed to send message", "error", err, "event_id", e.ID, "type", e.Type)
		}
	}
}

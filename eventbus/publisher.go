// Package eventbus forwards committed ledger events to a watermill topic so
// that indexers and other services can follow the pool.
package eventbus

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/joltify-finance/token-staking/model"
	"github.com/joltify-finance/token-staking/stakemgr"
)

const (
	MetadataEventType = "event_type"
	MetadataTimestamp = "event_timestamp"

	defaultQueueSize = 1024
)

// Publisher is a stakemgr.EventSink publishing every event as JSON.  The
// ledger calls sinks with its lock held, so events are queued and published
// from a separate goroutine.  Events arriving while the queue is full are
// dropped and counted.
type Publisher struct {
	pub   message.Publisher
	topic string

	queue   chan *message.Message
	dropped uint64

	started int32
	wg      sync.WaitGroup
	quit    chan struct{}
}

var _ stakemgr.EventSink = (*Publisher)(nil)

// NewPublisher returns a publisher to topic.  queueSize <= 0 selects the
// default size.
func NewPublisher(pub message.Publisher, topic string, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		pub:   pub,
		topic: topic,
		queue: make(chan *message.Message, queueSize),
		quit:  make(chan struct{}),
	}
}

// NewEventMessage encodes ev as a watermill message.
func NewEventMessage(ev *model.Event) (*message.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataEventType, string(ev.Type))
	msg.Metadata.Set(MetadataTimestamp, strconv.FormatInt(ev.Timestamp, 10))
	return msg, nil
}

// DecodeEvent is the inverse of NewEventMessage.
func DecodeEvent(msg *message.Message) (*model.Event, error) {
	var ev model.Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (p *Publisher) HandleEvent(ev *model.Event) {
	msg, err := NewEventMessage(ev)
	if err != nil {
		log.Errorf("Failed to encode %v event: %v", ev.Type, err)
		return
	}
	select {
	case p.queue <- msg:
	default:
		n := atomic.AddUint64(&p.dropped, 1)
		log.Warnf("Event queue full, dropped %v event (%d dropped so far)", ev.Type, n)
	}
}

// Dropped returns the number of events lost to a full queue.
func (p *Publisher) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

// Start launches the goroutine publishing queued events.
func (p *Publisher) Start() {
	if atomic.AddInt32(&p.started, 1) != 1 {
		return
	}
	p.wg.Add(1)
	go p.publishHandler()
}

// Stop publishes the events still queued and stops the publisher.  It does
// not close the underlying watermill publisher.
func (p *Publisher) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *Publisher) publish(msg *message.Message) {
	if err := p.pub.Publish(p.topic, msg); err != nil {
		log.Errorf("Failed to publish %s event %s: %v",
			msg.Metadata.Get(MetadataEventType), msg.UUID, err)
		return
	}
	log.Tracef("Published %s event %s to %s", msg.Metadata.Get(MetadataEventType), msg.UUID, p.topic)
}

func (p *Publisher) publishHandler() {
	defer p.wg.Done()
out:
	for {
		select {
		case msg := <-p.queue:
			p.publish(msg)
		case <-p.quit:
			break out
		}
	}

	// Flush what is left.
	for {
		select {
		case msg := <-p.queue:
			p.publish(msg)
		default:
			return
		}
	}
}

// Consume subscribes to topic and calls handle for every event until ctx is
// done.  Messages are acked when handle succeeds and nacked otherwise.
func Consume(ctx context.Context, sub message.Subscriber, topic string, handle func(ev *model.Event) error) error {
	if topic == "" {
		topic = DefaultTopic
	}
	msgs, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ctx.Err()
			}
			ev, err := DecodeEvent(msg)
			if err != nil {
				// Undecodable payloads would be redelivered forever.
				log.Errorf("Dropping malformed event message %s: %v", msg.UUID, err)
				msg.Ack()
				continue
			}
			if err := handle(ev); err != nil {
				log.Warnf("Handler failed for %v event %s: %v", ev.Type, msg.UUID, err)
				msg.Nack()
				continue
			}
			msg.Ack()
		}
	}
}

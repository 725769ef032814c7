package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	applog "gitshop/internal/log"

	"github.com/segmentio/kafka-go"
)

var ErrClosed = errors.New("publisher closed")

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues envelopes on an inbox and writes them from one
// goroutine so request handlers never block on the broker.
type KafkaPublisher struct {
	w        writer
	producer string
	inbox    chan kafka.Message
	closeCh  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, producer string, buf int) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, producer, buf)
}

func newKafkaPublisher(w writer, producer string, buf int) *KafkaPublisher {
	if buf <= 0 {
		buf = 256
	}
	return &KafkaPublisher{
		w:        w,
		producer: producer,
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
	}
}

// Start runs the write loop until Close is called.
func (p *KafkaPublisher) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				applog.Error(nil, "events.publish.fail", err, map[string]any{"topic": m.Topic, "key": string(m.Key)})
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			applog.Error(nil, "events.writer.close.fail", err, nil)
		}
	}()
}

// Publish wraps payload in an Envelope keyed by key (the partition key) and queues it.
// It blocks only while the inbox is full, honoring ctx.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload any) error {
	env, err := Wrap(p.producer, topic, key, payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	m := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(topic)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and lets the loop flush what is queued.
func (p *KafkaPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the queue is flushed and the writer closed.
func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }

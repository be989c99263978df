package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"growmart/internal/core"

	"github.com/segmentio/kafka-go"
)

// Producer buffers messages in an inbox drained by one writer goroutine.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the writer loop until Close is called; queued messages are flushed first.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				slog.Error("kafka write failed", "topic", p.w.Topic, "key", string(m.Key), "error", err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			slog.Error("kafka writer close failed", "error", err)
		}
	}()
}

// Publish enqueues a message. It fails instead of blocking when the inbox is full.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) error {
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return nil
	default:
		return fmt.Errorf("producer inbox full (%d messages)", cap(p.inbox))
	}
}

// Close stops accepting messages; WaitClosed blocks until the inbox is flushed.
func (p *Producer) Close()      { close(p.inbox) }
func (p *Producer) WaitClosed() { <-p.closeCh }

// publisher is the part of Producer the order publisher needs.
type publisher interface {
	Publish(key, value []byte, headers ...kafka.Header) error
}

// OrderPublisher emits order.placed envelopes for committed orders.
type OrderPublisher struct {
	out         publisher
	serviceName string
}

func NewOrderPublisher(out publisher, serviceName string) *OrderPublisher {
	return &OrderPublisher{out: out, serviceName: serviceName}
}

func (p *OrderPublisher) OrderPlaced(ctx context.Context, o *core.Order) error {
	env, err := NewOrderPlaced(p.serviceName, o)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return p.out.Publish(PartitionKey(o.ID), raw,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

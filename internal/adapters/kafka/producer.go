package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// messageWriter is the subset of *kafka.Writer the producer needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events, one writer per topic
type Producer struct {
	mu      sync.Mutex
	writers map[string]messageWriter
	brokers []string
	log     *logger.Logger

	newWriter func(topic string) messageWriter
}

type ProducerConfig struct {
	Brokers      []string
	BatchTimeout time.Duration
}

func NewProducer(cfg ProducerConfig) *Producer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}

	p := &Producer{
		writers: make(map[string]messageWriter),
		brokers: cfg.Brokers,
		log:     logger.Get().With("component", "kafka_producer"),
	}
	p.newWriter = func(topic string) messageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		}
	}
	return p
}

func (p *Producer) writer(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Publish JSON-encodes each event and writes them to topic in one call.
// keys[i] partitions events[i]; a region key keeps a region's events ordered.
func (p *Producer) Publish(ctx context.Context, topic string, keys []string, events []interface{}) error {
	if len(keys) != len(events) {
		return errors.Wrapf(errors.ErrInvalidInput, "%d keys for %d events", len(keys), len(events))
	}

	msgs := make([]kafka.Message, 0, len(events))
	for i, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return errors.Wrapf(err, "encode event for %s", keys[i])
		}
		msgs = append(msgs, kafka.Message{Key: []byte(keys[i]), Value: data})
	}

	if err := p.writer(topic).WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrapf(err, "publish %d messages to %s", len(msgs), topic)
	}

	p.log.Debugw("Published", "topic", topic, "count", len(msgs))
	return nil
}

// Close closes every writer, returning the first error
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var first error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.log.Warnw("Failed to close writer", "topic", topic, "error", err)
			if first == nil {
				first = err
			}
		}
	}
	p.writers = make(map[string]messageWriter)
	return first
}

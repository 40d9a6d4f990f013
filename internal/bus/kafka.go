package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// KafkaBus maps the Bus contract onto Kafka topics. A direct destination is
// a single-partition topic consumed with a group id shared by all
// subscribers of that destination, which gives competing-consumer delivery
// and per-destination ordering. A broadcast topic is consumed with a fresh
// group id per subscriber so everyone sees every message.
type KafkaBus struct {
	brokers []string
	writer  *kafka.Writer
	logger  *slog.Logger

	mu      sync.Mutex
	created map[string]bool
	readers []*kafka.Reader
	closed  bool
}

func NewKafkaBus(brokers []string, logger *slog.Logger) *KafkaBus {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &KafkaBus{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
		created: make(map[string]bool),
	}
}

func (b *KafkaBus) Broadcast(ctx context.Context, topic string, payload []byte) error {
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	return b.write(ctx, topic, payload)
}

func (b *KafkaBus) Send(ctx context.Context, destination string, payload []byte) error {
	if err := b.ensureTopic(ctx, destination); err != nil {
		return err
	}
	return b.write(ctx, destination, payload)
}

func (b *KafkaBus) SubscribeBroadcast(ctx context.Context, topic string) (<-chan Message, error) {
	// Unique group per subscriber: every subscriber gets the full stream.
	group := topic + "." + uuid.NewString()[:8]
	return b.consume(ctx, topic, group)
}

func (b *KafkaBus) Subscribe(ctx context.Context, destination string) (<-chan Message, error) {
	// Shared group named after the destination: subscribers compete.
	return b.consume(ctx, destination, destination)
}

func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, r := range b.readers {
		_ = r.Close()
	}
	return b.writer.Close()
}

func (b *KafkaBus) write(ctx context.Context, topic string, payload []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Value: payload,
		Time:  time.Now(),
	}
	if err := b.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	return nil
}

func (b *KafkaBus) consume(ctx context.Context, topic, group string) (<-chan Message, error) {
	if err := b.ensureTopic(ctx, topic); err != nil {
		return nil, err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           b.brokers,
		GroupID:           group,
		Topic:             topic,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = reader.Close()
		return nil, ErrBusClosed
	}
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.logger.Error("reader stopped", "topic", topic, "error", err)
				}
				return
			}
			select {
			case out <- Message{Destination: topic, Payload: msg.Value}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ensureTopic creates the single-partition topic backing a destination if
// it does not exist. Safe to call repeatedly for the same destination.
func (b *KafkaBus) ensureTopic(ctx context.Context, topic string) error {
	b.mu.Lock()
	if b.created[topic] {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	conn, err := kafka.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}

	b.mu.Lock()
	b.created[topic] = true
	b.mu.Unlock()
	return nil
}

var _ Bus = (*KafkaBus)(nil)

package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
	// BatchTimeout bounds how long a write waits for a batch to fill. Zero
	// keeps kafka-go's one second, which is too slow for request paths.
	BatchTimeout time.Duration
}

// Kafka keeps one writer per topic, created on first use.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, missing("kafka brokers")
	}
	cfg.Brokers = append([]string(nil), cfg.Brokers...)

	return &Kafka{cfg: cfg, writers: map[string]*kafka.Writer{}}, nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writers == nil {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      k.cfg.Brokers,
		Topic:        topic,
		Dialer:       k.cfg.Dialer,
		Balancer:     &kafka.Hash{},
		BatchTimeout: k.cfg.BatchTimeout,
	})
	k.writers[topic] = w
	return w, nil
}

// Publish blocks until the broker acknowledges the message.
func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) error {
	if err := precheck(ctx, topic); err != nil {
		return err
	}

	w, err := k.writer(topic)
	if err != nil {
		return err
	}

	km := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for key, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := w.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka publish %s: %w", topic, err)
	}
	return nil
}

func (k *Kafka) Close() error {
	k.mu.Lock()
	writers := k.writers
	k.writers = nil
	k.mu.Unlock()

	var errs []error
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

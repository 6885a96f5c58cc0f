package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrTopicRequired = errors.New("messaging: topic is required")
	ErrMissingConfig = errors.New("messaging: missing config")
	ErrClosed        = errors.New("messaging: publisher closed")
	ErrUnknownDriver = errors.New("messaging: unknown driver")
)

type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// Messaging is the Publisher the app owns and closes on shutdown.
type Messaging interface {
	io.Closer
	Publisher
}

// Message is broker neutral. Key drives Kafka partitioning. Headers become
// Kafka and NATS headers or Pub/Sub attributes; NSQ has no headers and drops
// them.
type Message struct {
	Key     []byte
	Body    []byte
	Headers map[string]string
}

func missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingConfig, what)
}

// precheck holds the checks every driver runs before publishing.
func precheck(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}

package messaging

import (
	"context"
	"fmt"

	nsq "github.com/nsqio/go-nsq"
)

type NSQConfig struct {
	Addr   string
	Config *nsq.Config
}

// NSQ publishes to a single nsqd, dialed on first publish.
type NSQ struct {
	producer *nsq.Producer
}

func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.Addr == "" {
		return nil, missing("nsq address")
	}

	conf := cfg.Config
	if conf == nil {
		conf = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.Addr, conf)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p}, nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) error {
	if err := precheck(ctx, topic); err != nil {
		return err
	}
	if err := n.producer.Publish(topic, msg.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish %s: %w", topic, err)
	}
	return nil
}

func (n *NSQ) Close() error {
	n.producer.Stop()
	return nil
}

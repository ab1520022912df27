package queue

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/iliyamo/seat-booking/internal/config"
)

// Publisher delivers seat events to the broker.  Callers treat failures as
// non-fatal: a committed reservation is never undone because its event
// could not be sent.
type Publisher interface {
	Publish(ctx context.Context, ev SeatEvent) error
	Close() error
}

// NewPublisher returns the publisher selected by cfg.Driver.
func NewPublisher(cfg config.EventsConfig, logger hclog.Logger) Publisher {
	switch cfg.Driver {
	case config.EventsAMQP:
		return NewAMQPPublisher(cfg.AMQPURL, cfg.Queue, logger)
	case config.EventsKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic, logger)
	default:
		return Noop{}
	}
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, SeatEvent) error { return nil }
func (Noop) Close() error                             { return nil }

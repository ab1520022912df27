package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes seat events to a topic keyed by requester, so the
// events of one user land on one partition in order.
type KafkaPublisher struct {
	Writer *kafka.Writer
	log    hclog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger hclog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		log: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev SeatEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   ev.Key(),
		Value: body,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		p.log.Warn("publish failed", "topic", p.Writer.Topic, "event", ev.ID, "error", err)
	}
	return err
}

func (p *KafkaPublisher) Close() error { return p.Writer.Close() }

// ConsumeKafka reads the topic as part of group and hands every message to
// handle until ctx is cancelled.  Offsets are committed after handling,
// including for messages that failed, which are logged and skipped.
func ConsumeKafka(ctx context.Context, brokers []string, topic, group string, logger hclog.Logger, handle Handler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	defer r.Close()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			logger.Warn("fetch message failed", "error", err)
			if !sleepCtx(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		ev, err := decodeEvent(m.Value)
		if err == nil {
			err = handle(ctx, ev)
		}
		if err != nil {
			logger.Error("handle message failed", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			logger.Warn("commit offset failed", "offset", m.Offset, "error", err)
		}
	}
}

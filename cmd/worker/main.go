// Command worker consumes seat events and appends them to the audit log.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/logging"
	"github.com/iliyamo/seat-booking/internal/queue"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadEventsConfig()
	logCfg := config.LoadLogConfig()
	logger := logging.New(logging.Options{Name: "booking-worker", Level: logCfg.Level, JSON: logCfg.JSON})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit, err := queue.OpenAuditLog(cfg.AuditLog)
	if err != nil {
		logger.Error("open audit log failed", "path", cfg.AuditLog, "error", err)
		os.Exit(1)
	}
	defer audit.Close()

	logger.Info("worker started", "driver", cfg.Driver, "audit_log", cfg.AuditLog)
	switch cfg.Driver {
	case config.EventsAMQP:
		err = queue.ConsumeAMQP(ctx, cfg.AMQPURL, cfg.Queue, logger.Named("amqp"), audit.Handle)
	case config.EventsKafka:
		err = queue.ConsumeKafka(ctx, cfg.KafkaBrokers, cfg.Topic, cfg.Group, logger.Named("kafka"), audit.Handle)
	default:
		logger.Error("EVENTS_DRIVER must be amqp or kafka for the worker", "driver", cfg.Driver)
		os.Exit(1)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

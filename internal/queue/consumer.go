package queue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Handler processes one decoded event.
type Handler func(ctx context.Context, ev SeatEvent) error

// AuditLog appends every event it receives to a log file, one JSON line
// per event.
type AuditLog struct {
	mu     sync.Mutex
	file   *os.File
	logger hclog.Logger
}

// OpenAuditLog opens (or creates) path for appending, creating parent
// directories as needed.
func OpenAuditLog(path string) (*AuditLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &AuditLog{
		file: f,
		logger: hclog.New(&hclog.LoggerOptions{
			Name:       "booking",
			Output:     f,
			JSONFormat: true,
			Level:      hclog.Info,
		}),
	}, nil
}

// Handle writes ev to the log.  It matches the Handler signature.
func (a *AuditLog) Handle(_ context.Context, ev SeatEvent) error {
	msg := "Seats reserved"
	if ev.Type == SeatsReleased {
		msg = "Seats released"
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logger.Info(msg,
		"event_id", ev.ID,
		"user_id", ev.RequesterID,
		"seats", ev.SeatIDs,
		"count", len(ev.SeatIDs),
		"occurred_at", ev.OccurredAt.Format("2006-01-02T15:04:05Z07:00"),
	)
	return nil
}

func (a *AuditLog) Close() error { return a.file.Close() }

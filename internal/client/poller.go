package client

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/iliyamo/seat-booking/internal/api"
)

// DefaultPollInterval is how often the seat map is refreshed.
const DefaultPollInterval = 5 * time.Second

// SeatSource is what the poller reads from.  *Client satisfies it.
type SeatSource interface {
	Seats(ctx context.Context, sess *Session) ([]api.Seat, error)
}

// PollerConfig configures a Poller.  OnUpdate receives every successful
// snapshot; OnError receives failures and the loop keeps going.  Both run
// on the poller goroutine and are never called after Stop returns.
type PollerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	OnUpdate func([]api.Seat)
	OnError  func(error)
	Logger   hclog.Logger
}

// Poller refreshes the seat map on a fixed interval.  Polls never overlap:
// a refresh requested while one is running is folded into the next.
type Poller struct {
	src  SeatSource
	sess *Session
	cfg  PollerConfig
	log  hclog.Logger

	refresh chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	last    []api.Seat
	lastAt  time.Time
	running bool
}

// NewPoller polls src on behalf of sess.
func NewPoller(src SeatSource, sess *Session, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 || cfg.Timeout > cfg.Interval {
		cfg.Timeout = cfg.Interval
	}
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Poller{src: src, sess: sess, cfg: cfg, log: log, refresh: make(chan struct{}, 1)}
}

// Start polls once immediately and then every Interval until ctx ends or
// Stop is called.  Starting a running poller does nothing.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	go p.loop(ctx, p.done)
}

// Stop ends the loop and waits for an in-flight poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.mu.Unlock()

	cancel()
	<-done
}

// Refresh asks for a poll now.  Requests made while a poll is running
// collapse into one extra poll.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Last returns the latest snapshot and when it was taken.
func (p *Poller) Last() ([]api.Seat, time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.Seat, len(p.last))
	copy(out, p.last)
	return out, p.lastAt
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.refresh:
			ticker.Reset(p.cfg.Interval)
		}
		p.poll(ctx)
	}
}

func (p *Poller) poll(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	seats, err := p.src.Seats(pctx, p.sess)
	cancel()

	// a poll cut short by Stop is not reported
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.log.Debug("seat poll failed", "error", err)
		if p.cfg.OnError != nil {
			p.cfg.OnError(err)
		}
		return
	}

	p.mu.Lock()
	p.last = seats
	p.lastAt = time.Now()
	p.mu.Unlock()

	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate(seats)
	}
}

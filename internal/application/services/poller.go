package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

// Refresher is what the poller drives on every tick.
type Refresher interface {
	Reclassify(ref time.Time)
	Refresh(ctx context.Context) error
}

// RefetchInvalidator is implemented by caches that should be dropped before
// the hourly refetch.
type RefetchInvalidator interface {
	InvalidateCache()
}

// TickObserver receives tick and refetch outcomes, typically for metrics.
type TickObserver interface {
	ObserveTick()
	ObserveRefetch(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveTick()         {}
func (nopObserver) ObserveRefetch(error) {}

// PollerState is Idle or Ticking.
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerTicking
)

func (s PollerState) String() string {
	if s == PollerTicking {
		return "ticking"
	}
	return "idle"
}

// Poller advances the shared reference instant every interval and refetches
// the schedule when the minute-of-hour reaches zero.
type Poller struct {
	target      Refresher
	invalidator RefetchInvalidator
	observer    TickObserver
	clock       timewindow.Clock
	zone        *time.Location
	interval    time.Duration
	logger      *slog.Logger

	mu     sync.Mutex
	state  PollerState
	cron   *cron.Cron
	cancel context.CancelFunc
	// gen counts Start calls so a Start that lost to Stop does not schedule.
	gen uint64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInvalidator drops inv's cache before each refetch.
func WithInvalidator(inv RefetchInvalidator) PollerOption {
	return func(p *Poller) { p.invalidator = inv }
}

// WithObserver reports ticks and refetches to o.
func WithObserver(o TickObserver) PollerOption {
	return func(p *Poller) { p.observer = o }
}

// NewPoller creates an idle poller. A non-positive interval means
// timewindow.DefaultTickInterval.
func NewPoller(target Refresher, clock timewindow.Clock, zone *time.Location, interval time.Duration, logger *slog.Logger, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = timewindow.DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		target:   target,
		observer: nopObserver{},
		clock:    clock,
		zone:     zone,
		interval: interval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Poller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Tick reads the clock once, reclassifies against that instant and, when the
// refetch guard passes, refetches. It reports whether a refetch was attempted.
func (p *Poller) Tick(ctx context.Context) (bool, error) {
	ref := timewindow.CurrentLocalInstant(p.clock, p.zone)
	p.target.Reclassify(ref)
	p.observer.ObserveTick()

	if !timewindow.IsRefetchDue(ref) {
		return false, nil
	}
	if p.invalidator != nil {
		p.invalidator.InvalidateCache()
	}
	err := p.target.Refresh(ctx)
	p.observer.ObserveRefetch(err)
	if err != nil {
		return true, fmt.Errorf("refetch at %s: %w", ref.Format(time.RFC3339), err)
	}
	return true, nil
}

// Start ticks once and then every interval until Stop. The first tick always
// refetches so the dashboard has data before the next full hour. The lock is
// not held during that first refetch, so State and Stop stay responsive.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state == PollerTicking {
		p.mu.Unlock()
		return fmt.Errorf("%w: poller already running", domain.ErrConflict)
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.state = PollerTicking
	p.cancel = cancel
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	ref := timewindow.CurrentLocalInstant(p.clock, p.zone)
	p.target.Reclassify(ref)
	p.observer.ObserveTick()
	err := p.target.Refresh(runCtx)
	p.observer.ObserveRefetch(err)
	if err != nil && runCtx.Err() == nil {
		p.logger.Warn("initial refresh failed", slog.Any("error", err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.state != PollerTicking {
		// Stopped during the initial refresh.
		return nil
	}

	clog := cronLogger{logger: p.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	c.Schedule(cron.Every(p.interval), cron.FuncJob(func() {
		if _, err := p.Tick(runCtx); err != nil && runCtx.Err() == nil {
			p.logger.Warn("tick failed", slog.Any("error", err))
		}
	}))
	c.Start()
	p.cron = c
	p.logger.Info("poller started", slog.Duration("interval", p.interval))
	return nil
}

// Stop cancels in-flight refetches and waits for a running tick to return.
// No tick fires after Stop returns. Stopping an idle poller does nothing.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PollerIdle {
		return
	}
	p.cancel()
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
	p.cron = nil
	p.cancel = nil
	p.state = PollerIdle
	p.logger.Info("poller stopped")
}

// cronLogger routes cron's logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}

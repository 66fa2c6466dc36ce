package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

type countingRefresher struct {
	mu           sync.Mutex
	reclassified []time.Time
	refreshes    int
	err          error
	block        chan struct{}
}

func (r *countingRefresher) Reclassify(ref time.Time) {
	r.mu.Lock()
	r.reclassified = append(r.reclassified, ref)
	r.mu.Unlock()
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.refreshes++
	block, err := r.block, r.err
	r.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *countingRefresher) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reclassified), r.refreshes
}

type countingObserver struct {
	mu       sync.Mutex
	ticks    int
	refetch  int
	failures int
}

func (o *countingObserver) ObserveTick() {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()
}

func (o *countingObserver) ObserveRefetch(err error) {
	o.mu.Lock()
	o.refetch++
	if err != nil {
		o.failures++
	}
	o.mu.Unlock()
}

type countingInvalidator struct{ n int }

func (i *countingInvalidator) InvalidateCache() { i.n++ }

func TestPoller_TwoHoursOfTicksRefetchTwice(t *testing.T) {
	clock := newFakeClock(kst(2024, 5, 1, 9, 31, 0))
	target := &countingRefresher{}
	obs := &countingObserver{}
	inv := &countingInvalidator{}
	p := NewPoller(target, clock, timewindow.KST, time.Minute, quietLogger(), WithObserver(obs), WithInvalidator(inv))

	var refetchedAt []string
	for i := 0; i < 120; i++ {
		refetched, err := p.Tick(context.Background())
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if refetched {
			refetchedAt = append(refetchedAt, clock.Now().Format("15:04"))
		}
		clock.Advance(time.Minute)
	}

	reclassified, refreshes := target.counts()
	if reclassified != 120 {
		t.Errorf("reclassifications = %d, want 120", reclassified)
	}
	if refreshes != 2 {
		t.Errorf("refetches = %d, want 2 (at %v)", refreshes, refetchedAt)
	}
	if len(refetchedAt) != 2 || refetchedAt[0] != "10:00" || refetchedAt[1] != "11:00" {
		t.Errorf("refetched at %v, want [10:00 11:00]", refetchedAt)
	}
	if obs.ticks != 120 || obs.refetch != 2 {
		t.Errorf("observer saw %d ticks, %d refetches", obs.ticks, obs.refetch)
	}
	if inv.n != 2 {
		t.Errorf("cache invalidated %d times, want 2", inv.n)
	}
}

func TestPoller_TickPassesSameInstantToReclassify(t *testing.T) {
	utc := time.Date(2024, 5, 1, 0, 59, 30, 0, time.UTC)
	target := &countingRefresher{}
	p := NewPoller(target, newFakeClock(utc), timewindow.KST, time.Minute, quietLogger())

	if _, err := p.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	got := target.reclassified[0]
	if !got.Equal(utc) || got.Location() != timewindow.KST {
		t.Errorf("reference = %v (%v), want %v in KST", got, got.Location(), utc)
	}
}

func TestPoller_TickReportsRefetchError(t *testing.T) {
	target := &countingRefresher{err: &domain.FetchError{Op: "list broadcasts", Status: 502}}
	obs := &countingObserver{}
	p := NewPoller(target, newFakeClock(kst(2024, 5, 1, 12, 0, 0)), timewindow.KST, time.Minute, quietLogger(), WithObserver(obs))

	refetched, err := p.Tick(context.Background())
	if !refetched {
		t.Fatal("expected a refetch at minute 0")
	}
	if !errors.Is(err, domain.ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
	if obs.failures != 1 {
		t.Errorf("observer failures = %d, want 1", obs.failures)
	}
}

func TestPoller_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := &countingRefresher{}
	p := NewPoller(target, newFakeClock(kst(2024, 5, 1, 9, 31, 0)), timewindow.KST, time.Second, quietLogger())

	if p.State() != PollerIdle {
		t.Fatalf("new poller state = %v", p.State())
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if p.State() != PollerTicking {
		t.Fatalf("state after Start = %v", p.State())
	}
	if err := p.Start(context.Background()); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second Start: expected ErrConflict, got %v", err)
	}

	reclassified, refreshes := target.counts()
	if reclassified < 1 || refreshes != 1 {
		t.Errorf("Start should tick and refresh once, got %d/%d", reclassified, refreshes)
	}

	p.Stop()
	if p.State() != PollerIdle {
		t.Fatalf("state after Stop = %v", p.State())
	}
	after, _ := target.counts()
	time.Sleep(1500 * time.Millisecond)
	if again, _ := target.counts(); again != after {
		t.Errorf("ticks fired after Stop: %d -> %d", after, again)
	}

	// Stop on an idle poller is a no-op.
	p.Stop()
}

func TestPoller_StopDuringInitialRefresh(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := &countingRefresher{block: make(chan struct{})}
	p := NewPoller(target, newFakeClock(kst(2024, 5, 1, 9, 31, 0)), timewindow.KST, time.Second, quietLogger())

	started := make(chan error, 1)
	go func() { started <- p.Start(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, refreshes := target.counts(); refreshes >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial refresh did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stateCh := make(chan PollerState, 1)
	go func() { stateCh <- p.State() }()
	select {
	case st := <-stateCh:
		if st != PollerTicking {
			t.Errorf("state during initial refresh = %v, want ticking", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("State blocked on the initial refresh")
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on the initial refresh")
	}

	select {
	case err := <-started:
		if err != nil {
			t.Errorf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
	if p.State() != PollerIdle {
		t.Errorf("state after Stop = %v, want idle", p.State())
	}

	// A fresh Start after the interrupted one works normally.
	target.mu.Lock()
	target.block = nil
	target.mu.Unlock()
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	p.Stop()
}

func TestPoller_StopCancelsInFlightRefetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Minute 0 so every scheduled tick refetches.
	clock := newFakeClock(kst(2024, 5, 1, 10, 0, 0))
	target := &countingRefresher{}
	p := NewPoller(target, clock, timewindow.KST, time.Second, quietLogger())
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	target.mu.Lock()
	target.block = make(chan struct{})
	target.mu.Unlock()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, refreshes := target.counts(); refreshes >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduled refetch did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not cancel the in-flight refetch")
	}
}

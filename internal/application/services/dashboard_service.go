package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

// DashboardFilter is the user's selection on the home page.
type DashboardFilter struct {
	Date        string
	ChannelCode string
	Keyword     string
	Categories  []string
}

// View is a rendered home page at one reference instant. Views are never
// modified after they are published.
type View struct {
	Reference  time.Time
	Date       string
	Partitions timewindow.Partitions
	// Buckets groups Partitions.Timeline by hour.
	Buckets   []timewindow.HourBucket
	LiveLinks map[int64]string
	Channels  []domain.Channel
	// RefreshedAt is when the slot snapshot was last fetched successfully.
	RefreshedAt time.Time
	// Err is the last refresh failure, if the snapshot is older than it.
	Err error
}

type dashboardSnapshot struct {
	date        string
	today       []domain.BroadcastSlot
	channels    []domain.Channel
	refreshedAt time.Time
}

// DashboardService keeps the current schedule snapshot and recomputes the
// home page view whenever the reference instant moves.
type DashboardService struct {
	schedule *ScheduleService
	zone     *time.Location
	clock    timewindow.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	snap    *dashboardSnapshot
	ref     time.Time
	lastErr error

	view atomic.Pointer[View]
}

// NewDashboardService creates a dashboard bound to zone. The clock is only
// read to seed the reference before the first tick.
func NewDashboardService(schedule *ScheduleService, zone *time.Location, clock timewindow.Clock, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DashboardService{
		schedule: schedule,
		zone:     zone,
		clock:    clock,
		logger:   logger,
		snap:     &dashboardSnapshot{},
		ref:      timewindow.CurrentLocalInstant(clock, zone),
	}
	d.publishLocked()
	return d
}

// Reference returns the shared reference instant.
func (d *DashboardService) Reference() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ref
}

// View returns the current default view.
func (d *DashboardService) View() *View {
	return d.view.Load()
}

// Reclassify moves the reference instant and recomputes the view.
func (d *DashboardService) Reclassify(ref time.Time) {
	d.mu.Lock()
	d.ref = ref.In(d.zone)
	d.publishLocked()
	d.mu.Unlock()
}

// Refresh refetches today's schedule and the channel list. On failure the
// previous snapshot stays in place and the error is carried in the view.
func (d *DashboardService) Refresh(ctx context.Context) error {
	d.mu.Lock()
	ref := d.ref
	d.mu.Unlock()

	date := timewindow.DateKey(ref, d.zone)
	tomorrow := timewindow.DateKey(timewindow.StartOfDay(ref, d.zone).AddDate(0, 0, 1), d.zone)

	var (
		today    []domain.BroadcastSlot
		channels []domain.Channel
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = d.schedule.RefreshBroadcasts(gctx, domain.BroadcastQuery{Date: date})
		if err != nil {
			return fmt.Errorf("list broadcasts for %s: %w", date, err)
		}
		return nil
	})
	g.Go(func() error {
		// Warm the cache for the date picker's second day.
		if _, err := d.schedule.RefreshBroadcasts(gctx, domain.BroadcastQuery{Date: tomorrow}); err != nil {
			return fmt.Errorf("list broadcasts for %s: %w", tomorrow, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		channels, err = d.schedule.ListChannels(gctx)
		if err != nil {
			return fmt.Errorf("list channels: %w", err)
		}
		return nil
	})

	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.lastErr = err
		d.publishLocked()
		d.logger.Warn("dashboard refresh failed; keeping previous snapshot", slog.Any("error", err))
		return err
	}
	d.snap = &dashboardSnapshot{
		date:        date,
		today:       today,
		channels:    channels,
		refreshedAt: d.clock.Now(),
	}
	d.lastErr = nil
	d.publishLocked()
	d.logger.Info("dashboard refreshed", slog.String("date", date), slog.Int("broadcasts", len(today)), slog.Int("channels", len(channels)))
	return nil
}

func (d *DashboardService) publishLocked() {
	snap := d.snap
	v := d.buildView(d.ref, snap.date, snap.today, snap.today, snap.channels)
	v.RefreshedAt = snap.refreshedAt
	v.Err = d.lastErr
	d.view.Store(v)
}

func (d *DashboardService) buildView(ref time.Time, date string, today, window []domain.BroadcastSlot, channels []domain.Channel) *View {
	p := timewindow.Partition(today, window, ref)
	return &View{
		Reference:  ref,
		Date:       date,
		Partitions: p,
		Buckets:    timewindow.GroupByHour(p.Timeline, d.zone),
		LiveLinks:  LiveLinks(p.Timeline, channels),
		Channels:   channels,
	}
}

// Snapshot returns the view for filter at the shared reference instant. The
// unfiltered default is served from the published view; anything else is
// fetched through the schedule cache. The date must be today or tomorrow.
func (d *DashboardService) Snapshot(ctx context.Context, filter DashboardFilter) (*View, error) {
	current := d.View()
	ref := current.Reference
	today := timewindow.DateKey(ref, d.zone)
	tomorrow := timewindow.DateKey(timewindow.StartOfDay(ref, d.zone).AddDate(0, 0, 1), d.zone)

	date := filter.Date
	if date == "" {
		date = today
	}
	if date != today && date != tomorrow {
		return nil, fmt.Errorf("%w: date %q must be %s or %s", domain.ErrInvalidInput, filter.Date, today, tomorrow)
	}

	q := domain.BroadcastQuery{
		Date:        date,
		ChannelCode: filter.ChannelCode,
		Keyword:     filter.Keyword,
		Categories:  filter.Categories,
	}
	if q.IsDefault() && date == current.Date && current.Err == nil {
		return current, nil
	}

	window, err := d.schedule.ListBroadcasts(ctx, q)
	if err != nil {
		return nil, err
	}

	live := current.Partitions.Live
	if current.Date != today {
		// Snapshot predates the day change; live slots come from the cache.
		live, err = d.schedule.ListBroadcasts(ctx, domain.BroadcastQuery{Date: today})
		if err != nil {
			return nil, err
		}
	}

	v := d.buildView(ref, date, live, window, current.Channels)
	v.RefreshedAt = current.RefreshedAt
	return v, nil
}

// Trends returns the number of today's broadcasts starting in each hour.
func (d *DashboardService) Trends(ctx context.Context) ([24]int, error) {
	today := timewindow.DateKey(d.View().Reference, d.zone)

	d.mu.Lock()
	snap := d.snap
	d.mu.Unlock()

	list := snap.today
	if snap.date != today {
		var err error
		list, err = d.schedule.ListBroadcasts(ctx, domain.BroadcastQuery{Date: today})
		if err != nil {
			return [24]int{}, err
		}
	}
	return timewindow.HourlyCounts(list, d.zone), nil
}

// LiveLinks maps slot IDs to the URL where the broadcast can be watched: the
// slot's own live URL, else its channel's.
func LiveLinks(slots []domain.BroadcastSlot, channels []domain.Channel) map[int64]string {
	byChannel := make(map[int64]string, len(channels))
	for _, ch := range channels {
		if ch.LiveURL != "" {
			byChannel[ch.ID] = ch.LiveURL
		}
	}
	links := make(map[int64]string, len(slots))
	for _, s := range slots {
		if s.LiveURL != "" {
			links[s.ID] = s.LiveURL
		} else if u, ok := byChannel[s.ChannelID]; ok {
			links[s.ID] = u
		}
	}
	return links
}

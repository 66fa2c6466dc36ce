package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
	"github.com/githubixx/homeshop-go/internal/ports"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dayFixture is a schedule for 2024-05-01 KST with two channels.
func dayFixture() (*ports.MockScheduleAPI, *fakeClock) {
	slots := []domain.BroadcastSlot{
		slot(1, 1, kst(2024, 5, 1, 9, 0, 0), time.Hour),   // ended at 10:30
		slot(2, 1, kst(2024, 5, 1, 10, 0, 0), time.Hour),  // live
		slot(3, 2, kst(2024, 5, 1, 10, 15, 0), time.Hour), // live
		slot(4, 2, kst(2024, 5, 1, 11, 15, 0), time.Hour), // upcoming
		slot(5, 1, kst(2024, 5, 1, 11, 0, 0), time.Hour),  // upcoming
	}
	slots[2].LiveURL = "https://live.example/slot3"
	slots[3].Category = "가전"
	api := ports.NewMockScheduleAPI().
		WithBroadcasts(slots).
		WithChannels([]domain.Channel{
			{ID: 1, Code: "chb", Name: "One", LiveURL: "https://live.example/one"},
			{ID: 2, Code: "chc", Name: "Two"},
		})
	return api, newFakeClock(kst(2024, 5, 1, 10, 30, 0))
}

func newDashboard(api ports.ScheduleAPI, clock *fakeClock) *DashboardService {
	schedule := NewScheduleService(api, time.Minute, time.Minute)
	return NewDashboardService(schedule, timewindow.KST, clock, quietLogger())
}

func TestDashboardService_RefreshBuildsView(t *testing.T) {
	api, clock := dayFixture()
	d := newDashboard(api, clock)

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	v := d.View()

	if v.Date != "2024-05-01" {
		t.Errorf("Date = %q", v.Date)
	}
	if diff := cmp.Diff([]int64{2, 3}, slotIDs(v.Partitions.Live)); diff != "" {
		t.Errorf("live mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{4, 5}, slotIDs(v.Partitions.Upcoming)); diff != "" {
		t.Errorf("upcoming mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1}, slotIDs(v.Partitions.Past)); diff != "" {
		t.Errorf("past mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 3, 4, 5}, slotIDs(v.Partitions.Timeline)); diff != "" {
		t.Errorf("timeline mismatch (-want +got):\n%s", diff)
	}

	labels := make([]string, len(v.Buckets))
	for i, b := range v.Buckets {
		labels[i] = b.Label
	}
	if diff := cmp.Diff([]string{"10:00", "11:00"}, labels); diff != "" {
		t.Errorf("bucket labels mismatch (-want +got):\n%s", diff)
	}
	// 11:15 arrives before 11:00 and stays first within its bucket.
	if diff := cmp.Diff([]int64{4, 5}, slotIDs(v.Buckets[1].Slots)); diff != "" {
		t.Errorf("bucket order mismatch (-want +got):\n%s", diff)
	}

	if v.LiveLinks[3] != "https://live.example/slot3" {
		t.Errorf("slot live URL not preferred: %q", v.LiveLinks[3])
	}
	if v.LiveLinks[2] != "https://live.example/one" {
		t.Errorf("channel live URL fallback missing: %q", v.LiveLinks[2])
	}
	if _, ok := v.LiveLinks[4]; ok {
		t.Errorf("slot on channel without live URL should have no link")
	}
}

func TestDashboardService_ReclassifyMovesSlotsWithoutFetching(t *testing.T) {
	api, clock := dayFixture()
	d := newDashboard(api, clock)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	calls := api.Calls("ListBroadcasts")

	d.Reclassify(kst(2024, 5, 1, 11, 0, 0))
	v := d.View()

	// Slot 2 ends exactly at 11:00 and is still live; slot 5 starts then.
	if diff := cmp.Diff([]int64{2, 3, 5}, slotIDs(v.Partitions.Live)); diff != "" {
		t.Errorf("live mismatch (-want +got):\n%s", diff)
	}
	if got := api.Calls("ListBroadcasts"); got != calls {
		t.Errorf("Reclassify fetched from the API (%d -> %d calls)", calls, got)
	}
}

func TestDashboardService_RefreshFailureKeepsSnapshot(t *testing.T) {
	api, clock := dayFixture()
	d := newDashboard(api, clock)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	fetchErr := &domain.FetchError{Op: "list broadcasts", Status: 503}
	api.ListBroadcastsFunc = func(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
		return nil, fetchErr
	}

	err := d.Refresh(context.Background())
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	v := d.View()
	if !errors.Is(v.Err, domain.ErrFetch) {
		t.Errorf("view should carry the refresh error, got %v", v.Err)
	}
	if len(v.Partitions.Live) != 2 {
		t.Errorf("previous snapshot lost: %d live slots", len(v.Partitions.Live))
	}

	api.ListBroadcastsFunc = nil
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh after recovery: %v", err)
	}
	if d.View().Err != nil {
		t.Errorf("error should clear after a successful refresh")
	}
}

func TestDashboardService_RefreshParseErrorFailsWholeFetch(t *testing.T) {
	api, clock := dayFixture()
	d := newDashboard(api, clock)
	api.ListBroadcastsFunc = func(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
		return nil, &domain.ParseError{Input: "yesterday"}
	}

	if err := d.Refresh(context.Background()); !errors.Is(err, domain.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if n := len(d.View().Partitions.Timeline); n != 0 {
		t.Errorf("expected empty view, got %d timeline slots", n)
	}
}

func TestDashboardService_Snapshot(t *testing.T) {
	api, clock := dayFixture()
	d := newDashboard(api, clock)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	ctx := context.Background()

	t.Run("default returns published view", func(t *testing.T) {
		v, err := d.Snapshot(ctx, DashboardFilter{})
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if v != d.View() {
			t.Errorf("expected the published view")
		}
	})

	t.Run("filter keeps live from today and shares reference", func(t *testing.T) {
		clock.Advance(5 * time.Hour) // must not be read
		v, err := d.Snapshot(ctx, DashboardFilter{Date: "2024-05-01", Categories: []string{"가전"}})
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if !v.Reference.Equal(kst(2024, 5, 1, 10, 30, 0)) {
			t.Errorf("reference = %v", v.Reference)
		}
		if diff := cmp.Diff([]int64{2, 3, 4}, slotIDs(v.Partitions.Timeline)); diff != "" {
			t.Errorf("timeline mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("tomorrow is allowed", func(t *testing.T) {
		if _, err := d.Snapshot(ctx, DashboardFilter{Date: "2024-05-02"}); err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
	})

	for _, date := range []string{"2024-04-30", "2024-05-03", "not-a-date"} {
		t.Run("rejects "+date, func(t *testing.T) {
			_, err := d.Snapshot(ctx, DashboardFilter{Date: date})
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDashboardService_Trends(t *testing.T) {
	api, clock := dayFixture()
	d := newDashboard(api, clock)
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	counts, err := d.Trends(context.Background())
	if err != nil {
		t.Fatalf("Trends: %v", err)
	}
	want := [24]int{}
	want[9], want[10], want[11] = 1, 2, 2
	if counts != want {
		t.Errorf("counts = %v, want %v", counts, want)
	}
}

func TestLiveLinks(t *testing.T) {
	slots := []domain.BroadcastSlot{
		{ID: 1, ChannelID: 10, LiveURL: "https://own"},
		{ID: 2, ChannelID: 10},
		{ID: 3, ChannelID: 20},
	}
	channels := []domain.Channel{{ID: 10, LiveURL: "https://channel"}, {ID: 20}}

	want := map[int64]string{1: "https://own", 2: "https://channel"}
	if diff := cmp.Diff(want, LiveLinks(slots, channels)); diff != "" {
		t.Errorf("LiveLinks mismatch (-want +got):\n%s", diff)
	}
}

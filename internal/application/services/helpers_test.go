package services

import (
	"sync"
	"time"

	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

// fakeClock is a settable timewindow.Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var _ timewindow.Clock = (*fakeClock)(nil)

func kst(year int, month time.Month, day, hour, minute, sec int) time.Time {
	return time.Date(year, month, day, hour, minute, sec, 0, timewindow.KST)
}

func slot(id int64, channelID int64, start time.Time, d time.Duration) domain.BroadcastSlot {
	return domain.BroadcastSlot{
		ID:          id,
		ChannelID:   channelID,
		ChannelCode: "ch" + string(rune('a'+channelID)),
		RawTitle:    "slot",
		Start:       start,
		End:         start.Add(d),
		Status:      domain.StatusScheduled,
	}
}

func slotIDs(slots []domain.BroadcastSlot) []int64 {
	out := make([]int64, len(slots))
	for i, s := range slots {
		out[i] = s.ID
	}
	return out
}

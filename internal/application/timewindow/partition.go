package timewindow

import (
	"time"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// Partitions is the home page split of a schedule at one reference instant.
type Partitions struct {
	Reference time.Time
	Live      []domain.BroadcastSlot
	Upcoming  []domain.BroadcastSlot
	Past      []domain.BroadcastSlot
	// Timeline is Live followed by Upcoming, each in input order.
	Timeline []domain.BroadcastSlot
}

// Partition splits the schedule at reference. Live is taken from today (the
// unfiltered schedule of the reference's day); Upcoming and Past come from
// window (the filtered listing). Input order is preserved in every set.
func Partition(today, window []domain.BroadcastSlot, reference time.Time) Partitions {
	p := Partitions{
		Reference: reference,
		Live:      make([]domain.BroadcastSlot, 0, len(today)),
		Upcoming:  make([]domain.BroadcastSlot, 0, len(window)),
		Past:      make([]domain.BroadcastSlot, 0),
	}

	for _, slot := range today {
		if Classify(slot, reference) == domain.StatusLive {
			p.Live = append(p.Live, slot)
		}
	}
	for _, slot := range window {
		switch Classify(slot, reference) {
		case domain.StatusScheduled:
			p.Upcoming = append(p.Upcoming, slot)
		case domain.StatusEnded:
			p.Past = append(p.Past, slot)
		}
	}

	p.Timeline = make([]domain.BroadcastSlot, 0, len(p.Live)+len(p.Upcoming))
	p.Timeline = append(p.Timeline, p.Live...)
	p.Timeline = append(p.Timeline, p.Upcoming...)
	return p
}

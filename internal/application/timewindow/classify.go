package timewindow

import (
	"time"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// Classify returns the status of slot at reference.
//
// The LIVE interval is closed on both ends: a slot is LIVE at exactly its
// start and at exactly its end.
func Classify(slot domain.BroadcastSlot, reference time.Time) domain.BroadcastStatus {
	return ClassifyInterval(slot.Start, slot.End, reference)
}

// ClassifyInterval classifies the interval [start, end] at reference.
func ClassifyInterval(start, end, reference time.Time) domain.BroadcastStatus {
	switch {
	case reference.Before(start):
		return domain.StatusScheduled
	case reference.After(end):
		return domain.StatusEnded
	default:
		return domain.StatusLive
	}
}

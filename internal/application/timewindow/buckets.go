package timewindow

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// HourBucket groups slots starting within the same hour of the day.
type HourBucket struct {
	Label string // "HH:00"
	Slots []domain.BroadcastSlot
}

// HourLabel returns the zero-padded 24-hour "HH:00" label of t in zone.
func HourLabel(t time.Time, zone *time.Location) string {
	return fmt.Sprintf("%02d:00", t.In(zone).Hour())
}

// GroupByHour buckets slots by the hour of their start in zone. Slots keep
// their arrival order inside a bucket; buckets are sorted by label.
func GroupByHour(slots []domain.BroadcastSlot, zone *time.Location) []HourBucket {
	index := make(map[string]int)
	buckets := make([]HourBucket, 0)

	for _, slot := range slots {
		label := HourLabel(slot.Start, zone)
		if i, ok := index[label]; ok {
			buckets[i].Slots = append(buckets[i].Slots, slot)
			continue
		}
		index[label] = len(buckets)
		buckets = append(buckets, HourBucket{Label: label, Slots: []domain.BroadcastSlot{slot}})
	}

	slices.SortFunc(buckets, func(a, b HourBucket) int {
		return strings.Compare(a.Label, b.Label)
	})
	return buckets
}

// HourlyCounts counts slots by the hour of day (in zone) they start in.
func HourlyCounts(slots []domain.BroadcastSlot, zone *time.Location) [24]int {
	var counts [24]int
	for _, slot := range slots {
		counts[slot.Start.In(zone).Hour()]++
	}
	return counts
}

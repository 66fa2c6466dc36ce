// Package timewindow classifies broadcast slots against a reference instant
// in a fixed display zone and groups them into hour buckets.
//
// Every function takes the zone explicitly. Nothing here reads time.Local or
// the system clock directly; "now" comes from a Clock supplied by the caller.
package timewindow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// DefaultZoneName is the IANA name of the display zone.
const DefaultZoneName = "Asia/Seoul"

// DateLayout formats a calendar day the way the schedule API expects it.
const DateLayout = "2006-01-02"

// KST is Korea Standard Time (UTC+9, no daylight saving).
var KST = time.FixedZone("KST", 9*60*60)

var errEmptyTimestamp = errors.New("empty timestamp")

// Offset-less forms are taken as UTC. Fractional seconds are accepted by
// time.Parse after the seconds field without being named in the layout.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the process clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// LoadZone resolves an IANA zone name. An empty name means DefaultZoneName.
// When no zone database is available, Asia/Seoul (and "KST") resolve to the
// fixed KST zone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == DefaultZoneName || name == "KST" {
		return KST, nil
	}
	return nil, fmt.Errorf("%w: unknown time zone %q: %v", domain.ErrInvalidInput, name, err)
}

// ToLocalInstant parses a timestamp emitted by the schedule API and returns
// the same absolute instant expressed in zone. Timestamps carrying an offset
// (RFC 3339) keep it; offset-less timestamps are UTC. Anything else, including
// the empty string, fails with *domain.ParseError. zone must not be nil.
func ToLocalInstant(ts string, zone *time.Location) (time.Time, error) {
	s := strings.TrimSpace(ts)
	if s == "" {
		return time.Time{}, &domain.ParseError{Input: ts, Err: errEmptyTimestamp}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t.In(zone), nil
	}
	for _, layout := range naiveLayouts {
		if nt, nerr := time.ParseInLocation(layout, s, time.UTC); nerr == nil {
			return nt.In(zone), nil
		}
	}
	return time.Time{}, &domain.ParseError{Input: ts, Err: err}
}

// CurrentLocalInstant returns clock's current instant in zone. It is meant to
// be called once per tick and the result threaded through that tick.
func CurrentLocalInstant(clock Clock, zone *time.Location) time.Time {
	return clock.Now().In(zone)
}

// DateKey returns the calendar day of t in zone as YYYY-MM-DD.
func DateKey(t time.Time, zone *time.Location) string {
	return t.In(zone).Format(DateLayout)
}

// StartOfDay returns midnight of t's calendar day in zone.
func StartOfDay(t time.Time, zone *time.Location) time.Time {
	lt := t.In(zone)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, zone)
}

// Package clock resolves instants into wall-clock time in the single operating
// timezone and computes the day and week boundaries everything else buckets by.
package clock

import (
	"fmt"
	"time"
)

// DayKeyLayout is the layout of calendar day keys (YYYY-MM-DD)
const DayKeyLayout = "2006-01-02"

// WorkWeekDays is the length of the reporting window (Mon-Fri)
const WorkWeekDays = 5

// Normalizer converts instants into the fixed operating timezone. The source of
// "now" is injectable so tests can pin it.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// Option configures a Normalizer
type Option func(*Normalizer)

// WithNow replaces the wall clock
func WithNow(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// New creates a Normalizer for loc. A nil loc means UTC.
func New(loc *time.Location, opts ...Option) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	n := &Normalizer{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// LoadLocation resolves an IANA zone name, falling back to a fixed offset
// when the zone database is unavailable. The fallback is only correct for
// zones without daylight saving, which holds for America/Phoenix.
func LoadLocation(name string, fallbackOffset time.Duration) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	return time.FixedZone(name, int(fallbackOffset.Seconds())), fmt.Errorf("load location %q: %w", name, err)
}

// Location returns the operating timezone
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Now returns the current instant in the operating timezone
func (n *Normalizer) Now() time.Time {
	return n.now().In(n.loc)
}

// In converts t to the operating timezone
func (n *Normalizer) In(t time.Time) time.Time {
	return t.In(n.loc)
}

// DayKey returns the calendar day key of t in the operating timezone
func (n *Normalizer) DayKey(t time.Time) string {
	return t.In(n.loc).Format(DayKeyLayout)
}

// Today returns the day key of the current instant
func (n *Normalizer) Today() string {
	return n.DayKey(n.now())
}

// Hour returns the wall-clock hour of t
func (n *Normalizer) Hour(t time.Time) int {
	return t.In(n.loc).Hour()
}

// IsFriday reports whether t falls on a Friday
func (n *Normalizer) IsFriday(t time.Time) bool {
	return t.In(n.loc).Weekday() == time.Friday
}

// StartOfDay returns midnight of the day containing t
func (n *Normalizer) StartOfDay(t time.Time) time.Time {
	d := t.In(n.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, n.loc)
}

// StartOfHour truncates t to the wall-clock hour
func (n *Normalizer) StartOfHour(t time.Time) time.Time {
	d := t.In(n.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), 0, 0, 0, n.loc)
}

// At returns hour:minute on the day containing t
func (n *Normalizer) At(t time.Time, hour, minute int) time.Time {
	d := t.In(n.loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, n.loc)
}

// StartOfWeek returns Monday 00:00 of the week containing t. Sunday belongs to
// the week that started six days earlier.
func (n *Normalizer) StartOfWeek(t time.Time) time.Time {
	d := t.In(n.loc)
	idx := (int(d.Weekday()) + 6) % 7
	return time.Date(d.Year(), d.Month(), d.Day()-idx, 0, 0, 0, 0, n.loc)
}

// FridayOfWeek returns Friday 23:59:59.999 of the week containing t
func (n *Normalizer) FridayOfWeek(t time.Time) time.Time {
	mon := n.StartOfWeek(t)
	return time.Date(mon.Year(), mon.Month(), mon.Day()+4, 23, 59, 59, 999*int(time.Millisecond), n.loc)
}

// WeekDays returns midnight of the five consecutive days starting at anchor's day
func (n *Normalizer) WeekDays(anchor time.Time) []time.Time {
	a := anchor.In(n.loc)
	days := make([]time.Time, WorkWeekDays)
	for i := range days {
		days[i] = time.Date(a.Year(), a.Month(), a.Day()+i, 0, 0, 0, 0, n.loc)
	}
	return days
}

// WeekDayKeys is WeekDays rendered as day keys
func (n *Normalizer) WeekDayKeys(anchor time.Time) []string {
	days := n.WeekDays(anchor)
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = d.Format(DayKeyLayout)
	}
	return keys
}

// ParseDayKey returns midnight of the given day key in the operating timezone
func (n *Normalizer) ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DayKeyLayout, key, n.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

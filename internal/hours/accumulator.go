// Package hours derives worked hours per agent per day from attendance events,
// with manual overrides taking precedence. Every consumer (dashboard, invoice,
// export) reads hours through Accumulator.
package hours

import (
	"sort"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/types"
)

// Accumulator answers hour queries for one recomputation pass. It captures
// "now" once at construction so every figure in a pass agrees.
type Accumulator struct {
	clock     *clock.Normalizer
	overrides types.HourOverrides
	byDay     map[string]map[string][]types.AttendanceEvent // agent -> day key -> events sorted by instant
	now       time.Time
	today     string
}

// New indexes attendance by agent and normalized day
func New(c *clock.Normalizer, attendance []types.AttendanceEvent, overrides types.HourOverrides) *Accumulator {
	now := c.Now()
	a := &Accumulator{
		clock:     c,
		overrides: overrides,
		byDay:     make(map[string]map[string][]types.AttendanceEvent),
		now:       now,
		today:     c.DayKey(now),
	}

	for _, ev := range attendance {
		days, ok := a.byDay[ev.Agent]
		if !ok {
			days = make(map[string][]types.AttendanceEvent)
			a.byDay[ev.Agent] = days
		}
		key := c.DayKey(ev.Timestamp)
		days[key] = append(days[key], ev)
	}

	for _, days := range a.byDay {
		for _, evs := range days {
			sort.SliceStable(evs, func(i, j int) bool {
				return evs[i].Timestamp.Before(evs[j].Timestamp)
			})
		}
	}

	return a
}

// Now returns the instant this pass was computed at
func (a *Accumulator) Now() time.Time {
	return a.now
}

// Today returns the day key of Now
func (a *Accumulator) Today() string {
	return a.today
}

// DayEvents returns the agent's attendance on day, earliest first
func (a *Accumulator) DayEvents(agent, day string) []types.AttendanceEvent {
	return a.byDay[agent][day]
}

// Hours returns worked hours for agent on day. An override short-circuits the
// interval walk entirely. Otherwise each IN pairs with the next OUT; a later
// IN before any OUT restarts the open interval, an OUT with nothing open is
// ignored, and an IN still open at the end counts up to now only when day is
// today.
func (a *Accumulator) Hours(agent, day string) float64 {
	if v, ok := a.overrides.Lookup(agent, day); ok {
		return v
	}

	var total time.Duration
	var open *time.Time
	for _, ev := range a.byDay[agent][day] {
		switch ev.Type {
		case types.AttendanceIn:
			ts := ev.Timestamp
			open = &ts
		case types.AttendanceOut:
			if open != nil {
				total += ev.Timestamp.Sub(*open)
				open = nil
			}
		}
	}

	if open != nil && day == a.today {
		if elapsed := a.now.Sub(*open); elapsed > 0 {
			total += elapsed
		}
	}

	return total.Hours()
}

// Sum adds Hours across days
func (a *Accumulator) Sum(agent string, days []string) float64 {
	var sum float64
	for _, day := range days {
		sum += a.Hours(agent, day)
	}
	return sum
}

// Grid returns Hours for every agent/day pair
func (a *Accumulator) Grid(agents, days []string) map[string]map[string]float64 {
	grid := make(map[string]map[string]float64, len(agents))
	for _, agent := range agents {
		row := make(map[string]float64, len(days))
		for _, day := range days {
			row[day] = a.Hours(agent, day)
		}
		grid[agent] = row
	}
	return grid
}

// Package dashboard derives the live per-agent status cards and call tallies.
// Everything here is a pure function of its inputs.
package dashboard

import (
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/hours"
	"github.com/dennisdiepolder/teamops/internal/types"
)

// Schedule is the daily target and start-time policy
type Schedule struct {
	TargetHours       float64
	FridayTargetHours float64
	StartHour         int
	FridayStartHour   int
}

// DefaultSchedule is 9h from 07:00, and 4h from 08:00 on Fridays
var DefaultSchedule = Schedule{
	TargetHours:       9,
	FridayTargetHours: 4,
	StartHour:         7,
	FridayStartHour:   8,
}

// Aggregator builds dashboard snapshots
type Aggregator struct {
	clock    *clock.Normalizer
	agents   []string
	schedule Schedule
}

// NewAggregator creates a new aggregator for the fixed agent set
func NewAggregator(c *clock.Normalizer, agents []string, schedule Schedule) *Aggregator {
	return &Aggregator{
		clock:    c,
		agents:   agents,
		schedule: schedule,
	}
}

// Build computes a status card for every agent. weekDays are the day keys of
// the active reporting window.
func (a *Aggregator) Build(acc *hours.Accumulator, calls []types.CallEvent, weekDays []string) types.DashboardSnapshot {
	now := acc.Now()
	today := acc.Today()
	friday := a.clock.IsFriday(now)

	target := a.schedule.TargetHours
	startHour := a.schedule.StartHour
	if friday {
		target = a.schedule.FridayTargetHours
		startHour = a.schedule.FridayStartHour
	}

	callsToday := make(map[string]int, len(a.agents))
	callsThisHour := make(map[string]int, len(a.agents))
	hourNow := a.clock.Hour(now)
	for _, c := range calls {
		if a.clock.DayKey(c.Timestamp) == today {
			callsToday[c.Agent]++
		}
		// Matches on hour-of-day alone, so calls from earlier days at the
		// same hour are counted too
		if a.clock.Hour(c.Timestamp) == hourNow {
			callsThisHour[c.Agent]++
		}
	}

	statuses := make([]types.AgentStatus, 0, len(a.agents))
	for _, agent := range a.agents {
		todayEvents := acc.DayEvents(agent, today)

		status := types.PresenceOffline
		if n := len(todayEvents); n > 0 && todayEvents[n-1].Type == types.AttendanceIn {
			status = types.PresenceOnline
		}

		hoursToday := acc.Hours(agent, today)
		remaining := target - hoursToday
		if remaining < 0 {
			remaining = 0
		}

		statuses = append(statuses, types.AgentStatus{
			Agent:          agent,
			Status:         status,
			HoursToday:     hoursToday,
			HoursWeek:      acc.Sum(agent, weekDays),
			CallsToday:     callsToday[agent],
			CallsThisHour:  callsThisHour[agent],
			TargetHours:    target,
			HoursRemaining: remaining,
			IsLate:         a.isLate(todayEvents, startHour),
		})
	}

	return types.DashboardSnapshot{
		Type:      "dashboard",
		Timestamp: now,
		Today:     today,
		Agents:    statuses,
	}
}

// isLate reports whether the first clock-in of the day came after the
// scheduled start. No clock-in at all is not late.
func (a *Aggregator) isLate(todayEvents []types.AttendanceEvent, startHour int) bool {
	for _, ev := range todayEvents {
		if ev.Type != types.AttendanceIn {
			continue
		}
		start := a.clock.At(ev.Timestamp, startHour, 0)
		return ev.Timestamp.After(start)
	}
	return false
}

// Tally counts one agent's calls today, since the top of the current hour, and
// per outcome. Every known outcome is present in the result.
func (a *Aggregator) Tally(agent string, calls []types.CallEvent, now time.Time) types.CallTally {
	today := a.clock.DayKey(now)
	startOfHour := a.clock.StartOfHour(now)

	tally := types.CallTally{
		Agent:    agent,
		Outcomes: make(map[types.Outcome]int, len(types.AllOutcomes)),
	}
	for _, o := range types.AllOutcomes {
		tally.Outcomes[o] = 0
	}

	for _, c := range calls {
		if c.Agent != agent || a.clock.DayKey(c.Timestamp) != today {
			continue
		}
		tally.CallsToday++
		if !c.Timestamp.Before(startOfHour) {
			tally.CallsThisHour++
		}
		if _, known := tally.Outcomes[c.Outcome]; known {
			tally.Outcomes[c.Outcome]++
		}
	}

	return tally
}

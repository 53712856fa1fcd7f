package types

import "time"

// Outcome is the result an agent records for a single call
type Outcome string

const (
	OutcomeAppointmentBooked Outcome = "APPOINTMENT BOOKED"
	OutcomeFollowUp          Outcome = "FOLLOW-UP"
	OutcomeNotInterested     Outcome = "NOT INTERESTED"
	OutcomeNoAnswer          Outcome = "NO ANSWER"
	OutcomeBadNumber         Outcome = "BAD-NUMBER"
	OutcomeDNC               Outcome = "DNC"
	OutcomeHungUp            Outcome = "HUNG-UP"
)

// AllOutcomes lists the call outcomes in display order
var AllOutcomes = []Outcome{
	OutcomeAppointmentBooked,
	OutcomeFollowUp,
	OutcomeNotInterested,
	OutcomeNoAnswer,
	OutcomeBadNumber,
	OutcomeDNC,
	OutcomeHungUp,
}

// IsValid reports whether o is one of AllOutcomes
func (o Outcome) IsValid() bool {
	for _, known := range AllOutcomes {
		if o == known {
			return true
		}
	}
	return false
}

// AttendanceType marks a clock-in or clock-out
type AttendanceType string

const (
	AttendanceIn  AttendanceType = "in"
	AttendanceOut AttendanceType = "out"
)

// CallEvent is a single tallied call. Immutable once created.
type CallEvent struct {
	ID        string    `json:"id"`
	Agent     string    `json:"agent"`
	Outcome   Outcome   `json:"outcome"`
	Timestamp time.Time `json:"ts"`
}

// AttendanceEvent is a clock-in or clock-out. Immutable once created.
type AttendanceEvent struct {
	ID        string         `json:"id"`
	Agent     string         `json:"agent"`
	Type      AttendanceType `json:"type"`
	Timestamp time.Time      `json:"ts"`
}

// HourOverrides maps agent -> day key (YYYY-MM-DD) -> hours
type HourOverrides map[string]map[string]float64

// Lookup returns the override for (agent, day) if one is present
func (o HourOverrides) Lookup(agent, day string) (float64, bool) {
	days, ok := o[agent]
	if !ok {
		return 0, false
	}
	v, ok := days[day]
	return v, ok
}

// Clone returns a deep copy
func (o HourOverrides) Clone() HourOverrides {
	out := make(HourOverrides, len(o))
	for agent, days := range o {
		cp := make(map[string]float64, len(days))
		for day, v := range days {
			cp[day] = v
		}
		out[agent] = cp
	}
	return out
}

// Adjustments maps a payroll agent to a monetary amount (commission or bonus)
type Adjustments map[string]float64

// Clone returns a copy
func (a Adjustments) Clone() Adjustments {
	out := make(Adjustments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

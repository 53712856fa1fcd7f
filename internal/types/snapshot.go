package types

import "time"

// AgentPresence is the live attendance status of an agent
type AgentPresence string

const (
	PresenceOnline  AgentPresence = "Online"
	PresenceOffline AgentPresence = "Offline"
)

// AgentStatus is the live per-agent dashboard card
type AgentStatus struct {
	Agent          string        `json:"agent"`
	Status         AgentPresence `json:"status"`
	HoursToday     float64       `json:"hoursToday"`
	HoursWeek      float64       `json:"hoursWeek"`
	CallsToday     int           `json:"callsToday"`
	CallsThisHour  int           `json:"callsThisHour"`
	TargetHours    float64       `json:"targetHours"`
	HoursRemaining float64       `json:"hoursRemaining"`
	IsLate         bool          `json:"isLate"`
}

// DashboardSnapshot is the payload pushed to dashboard clients every tick
type DashboardSnapshot struct {
	Type      string        `json:"type"` // always "dashboard"
	Timestamp time.Time     `json:"timestamp"`
	Today     string        `json:"today"`
	Agents    []AgentStatus `json:"agents"`
}

// CallTally summarizes one agent's calls for the call tracker view
type CallTally struct {
	Agent         string          `json:"agent"`
	CallsToday    int             `json:"callsToday"`
	CallsThisHour int             `json:"callsThisHour"`
	Outcomes      map[Outcome]int `json:"outcomes"`
}

// InvoiceLine is one payroll agent's section of the weekly invoice
type InvoiceLine struct {
	Agent         string             `json:"agent"`
	Hours         map[string]float64 `json:"hours"` // day key -> hours
	SubtotalHours float64            `json:"subtotalHours"`
	HoursAmount   float64            `json:"hoursAmount"`
	Commission    float64            `json:"commission"`
	Bonus         float64            `json:"bonus"`
	Amount        float64            `json:"amount"`
}

// InvoiceSnapshot is everything an export needs without re-deriving logic
type InvoiceSnapshot struct {
	Number        int                           `json:"invoiceNumber"`
	NumberPinned  bool                          `json:"invoiceNumberOverridden"`
	InvoiceFriday time.Time                     `json:"invoiceFriday"`
	WeekDays      []string                      `json:"weekDays"`
	ComputedHours map[string]map[string]float64 `json:"computedHours"` // every agent, not just payroll
	HourlyRate    float64                       `json:"hourlyRate"`
	Lines         []InvoiceLine                 `json:"lines"`
	GrandTotal    float64                       `json:"grandTotal"`
	FromAddress   []string                      `json:"fromAddress,omitempty"`
	ToAddress     []string                      `json:"toAddress,omitempty"`
}

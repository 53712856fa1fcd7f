// Package tracker owns the team-ops state: events, hour overrides, payroll
// adjustments and the active week. Every mutation runs under one lock and is
// persisted best-effort before the lock is released.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/dashboard"
	"github.com/dennisdiepolder/teamops/internal/events"
	"github.com/dennisdiepolder/teamops/internal/hours"
	"github.com/dennisdiepolder/teamops/internal/invoice"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/storage"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownAgent   = errors.New("unknown agent")
	ErrUnknownOutcome = errors.New("unknown call outcome")
	ErrInvalidDay     = errors.New("invalid day")
	ErrNotPayroll     = errors.New("agent is not on payroll")
)

// Options is the static roster and policy the tracker runs with
type Options struct {
	Agents      []string
	Payroll     []string
	Mirror      map[string]string // clock-in partner per agent
	Schedule    dashboard.Schedule
	HourlyRate  float64
	Calibration invoice.Calibration

	// Address lines printed on the invoice, optional
	InvoiceFrom []string
	InvoiceTo   []string
}

// Tracker is the single owner of mutable state
type Tracker struct {
	clock      *clock.Normalizer
	store      storage.Store
	events     *events.Store
	aggregator *dashboard.Aggregator
	calculator *invoice.Calculator
	metrics    *metrics.Metrics
	logger     zerolog.Logger

	agents  []string
	payroll []string
	mirror  map[string]string
	rate    float64
	issuer  []string
	billTo  []string

	overrides       types.HourOverrides
	commissions     types.Adjustments
	bonuses         types.Adjustments
	invoiceOverride *int
	weekStart       time.Time

	mu sync.RWMutex
}

// New creates a tracker with default state. Call Load to restore persisted
// records.
func New(c *clock.Normalizer, store storage.Store, opts Options, m *metrics.Metrics, logger zerolog.Logger) *Tracker {
	if opts.Mirror == nil {
		opts.Mirror = map[string]string{}
	}
	t := &Tracker{
		clock:      c,
		store:      store,
		events:     events.NewStore(),
		aggregator: dashboard.NewAggregator(c, opts.Agents, opts.Schedule),
		calculator: invoice.NewCalculator(c, opts.Agents, opts.Payroll, opts.HourlyRate, opts.Calibration),
		metrics:    m,
		logger:     logger.With().Str("component", "tracker").Logger(),
		agents:     opts.Agents,
		payroll:    opts.Payroll,
		mirror:     opts.Mirror,
		rate:       opts.HourlyRate,
		issuer:     opts.InvoiceFrom,
		billTo:     opts.InvoiceTo,
		overrides:  types.HourOverrides{},
		weekStart:  c.StartOfWeek(c.Now()),
	}
	t.commissions = t.payrollZeros()
	t.bonuses = t.payrollZeros()
	return t
}

// Agents returns the roster
func (t *Tracker) Agents() []string { return t.agents }

// Payroll returns the invoiced subset of the roster
func (t *Tracker) Payroll() []string { return t.payroll }

// HourlyRate returns the invoiced rate per hour
func (t *Tracker) HourlyRate() float64 { return t.rate }

// Clock returns the time normalizer the tracker derives with
func (t *Tracker) Clock() *clock.Normalizer { return t.clock }

// MirrorOf returns the partner clocked in alongside agent, if any
func (t *Tracker) MirrorOf(agent string) (string, bool) {
	partner, ok := t.mirror[agent]
	return partner, ok
}

// LogCall records a call for agent
func (t *Tracker) LogCall(ctx context.Context, agent string, outcome types.Outcome) (types.CallEvent, error) {
	if err := t.checkAgent(agent); err != nil {
		return types.CallEvent{}, err
	}
	if !outcome.IsValid() {
		return types.CallEvent{}, fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ev := t.events.AddCall(agent, outcome, t.clock.Now())
	t.metrics.RecordCallLogged(agent, string(outcome))
	t.persistCalls(ctx)
	return ev, nil
}

// RemoveLastCall removes one call for agent+outcome. It reports false when
// there was nothing to remove.
func (t *Tracker) RemoveLastCall(ctx context.Context, agent string, outcome types.Outcome) (bool, error) {
	if err := t.checkAgent(agent); err != nil {
		return false, err
	}
	if !outcome.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.events.RemoveLastCall(agent, outcome); err != nil {
		if errors.Is(err, events.ErrNoMatchingCall) {
			return false, nil
		}
		return false, err
	}
	t.metrics.RecordCallRemoved(agent)
	t.persistCalls(ctx)
	return true, nil
}

// ClockIn appends an IN for agent, and for its mirror partner when mirror is
// set and one is configured
func (t *Tracker) ClockIn(ctx context.Context, agent string, mirror bool) ([]types.AttendanceEvent, error) {
	if err := t.checkAgent(agent); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	added := []types.AttendanceEvent{t.events.AddAttendance(agent, types.AttendanceIn, now)}
	if partner, ok := t.mirror[agent]; ok && mirror {
		added = append(added, t.events.AddAttendance(partner, types.AttendanceIn, now))
	}
	for range added {
		t.metrics.RecordAttendance(string(types.AttendanceIn))
	}
	t.persistAttendance(ctx)
	return added, nil
}

// ClockOut appends an OUT for agent
func (t *Tracker) ClockOut(ctx context.Context, agent string) (types.AttendanceEvent, error) {
	if err := t.checkAgent(agent); err != nil {
		return types.AttendanceEvent{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ev := t.events.AddAttendance(agent, types.AttendanceOut, t.clock.Now())
	t.metrics.RecordAttendance(string(types.AttendanceOut))
	t.persistAttendance(ctx)
	return ev, nil
}

// leadingNumber matches the numeric prefix of override input, so "8h" reads as 8.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseHours coerces raw override input. The longest leading number is used;
// input without one becomes 0 and negatives clamp to 0.
func ParseHours(raw string) float64 {
	num := leadingNumber.FindString(strings.TrimSpace(raw))
	if num == "" {
		return 0
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, v)
}

// SetOverride pins the hours for agent on day. The stored value is returned.
func (t *Tracker) SetOverride(ctx context.Context, agent, day, raw string) (float64, error) {
	if err := t.checkAgent(agent); err != nil {
		return 0, err
	}
	if err := t.checkDay(day); err != nil {
		return 0, err
	}
	v := ParseHours(raw)

	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.overrides.Clone()
	if next[agent] == nil {
		next[agent] = map[string]float64{}
	}
	next[agent][day] = v
	t.overrides = next
	t.persist(ctx, storage.KeyOverrides, t.overrides)
	return v, nil
}

// ClearOverride removes the override for agent on day, restoring computed hours
func (t *Tracker) ClearOverride(ctx context.Context, agent, day string) error {
	if err := t.checkAgent(agent); err != nil {
		return err
	}
	if err := t.checkDay(day); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.overrides.Lookup(agent, day); !ok {
		return nil
	}
	next := t.overrides.Clone()
	delete(next[agent], day)
	if len(next[agent]) == 0 {
		delete(next, agent)
	}
	t.overrides = next
	t.persist(ctx, storage.KeyOverrides, t.overrides)
	return nil
}

// SetCommission sets a payroll agent's commission for the week
func (t *Tracker) SetCommission(ctx context.Context, agent string, v float64) error {
	return t.setAdjustment(ctx, agent, v, &t.commissions, storage.KeyCommissions)
}

// SetBonus sets a payroll agent's bonus for the week
func (t *Tracker) SetBonus(ctx context.Context, agent string, v float64) error {
	return t.setAdjustment(ctx, agent, v, &t.bonuses, storage.KeyBonuses)
}

func (t *Tracker) setAdjustment(ctx context.Context, agent string, v float64, target *types.Adjustments, key string) error {
	if !contains(t.payroll, agent) {
		return fmt.Errorf("%w: %q", ErrNotPayroll, agent)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := target.Clone()
	next[agent] = v
	*target = next
	t.persist(ctx, key, next)
	return nil
}

// SetInvoiceOverride pins the invoice number; nil restores the computed one
func (t *Tracker) SetInvoiceOverride(ctx context.Context, number *int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if number != nil {
		n := *number
		number = &n
	}
	t.invoiceOverride = number
	t.persist(ctx, storage.KeyInvoiceOverride, t.invoiceOverride)
}

// SetWeekStart moves the active week to begin at midnight of day. The anchor
// is not snapped to Monday.
func (t *Tracker) SetWeekStart(ctx context.Context, day string) (time.Time, error) {
	start, err := t.clock.ParseDayKey(day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.weekStart = start
	t.persistWeekStart(ctx)
	return start, nil
}

// ClearResult reports what a week clear removed
type ClearResult struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	CallsRemoved      int       `json:"callsRemoved"`
	AttendanceRemoved int       `json:"attendanceRemoved"`
	OverridesRemoved  int       `json:"overridesRemoved"`
}

// ClearWeek drops every event between the week anchor and Friday 23:59:59.999
// of that week, deletes overrides for the five week days and zeroes the
// payroll commissions and bonuses. Events outside the window are untouched.
func (t *Tracker) ClearWeek(ctx context.Context) ClearResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := ClearResult{
		From: t.weekStart,
		To:   t.clock.FridayOfWeek(t.weekStart),
	}
	res.CallsRemoved, res.AttendanceRemoved = t.events.PurgeBetween(res.From, res.To)

	next := t.overrides.Clone()
	for _, day := range t.clock.WeekDayKeys(t.weekStart) {
		for agent, days := range next {
			if _, ok := days[day]; ok {
				delete(days, day)
				res.OverridesRemoved++
			}
			if len(days) == 0 {
				delete(next, agent)
			}
		}
	}
	t.overrides = next
	t.commissions = t.payrollZeros()
	t.bonuses = t.payrollZeros()

	t.metrics.RecordWeekCleared(res.CallsRemoved + res.AttendanceRemoved)
	t.persistCalls(ctx)
	t.persistAttendance(ctx)
	t.persist(ctx, storage.KeyOverrides, t.overrides)
	t.persist(ctx, storage.KeyCommissions, t.commissions)
	t.persist(ctx, storage.KeyBonuses, t.bonuses)

	t.logger.Info().
		Time("from", res.From).
		Time("to", res.To).
		Int("calls", res.CallsRemoved).
		Int("attendance", res.AttendanceRemoved).
		Int("overrides", res.OverridesRemoved).
		Msg("week cleared")
	return res
}

// Dashboard derives the live status card for every agent
func (t *Tracker) Dashboard() types.DashboardSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	acc := hours.New(t.clock, t.events.Attendance(), t.overrides)
	return t.aggregator.Build(acc, t.events.Calls(), t.clock.WeekDayKeys(t.weekStart))
}

// CallTally summarizes agent's calls for the current day and hour
func (t *Tracker) CallTally(agent string) (types.CallTally, error) {
	if err := t.checkAgent(agent); err != nil {
		return types.CallTally{}, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.aggregator.Tally(agent, t.events.Calls(), t.clock.Now()), nil
}

// Invoice computes the invoice for the active week
func (t *Tracker) Invoice() types.InvoiceSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	acc := hours.New(t.clock, t.events.Attendance(), t.overrides)
	snap := t.calculator.Compute(acc, invoice.Input{
		WeekStart:      t.weekStart,
		Commissions:    t.commissions,
		Bonuses:        t.bonuses,
		NumberOverride: t.invoiceOverride,
	})
	snap.FromAddress = t.issuer
	snap.ToAddress = t.billTo
	return snap
}

// Calls returns calls in store order, optionally filtered to one agent
func (t *Tracker) Calls(agent string) []types.CallEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := t.events.Calls()
	if agent == "" {
		return all
	}
	out := make([]types.CallEvent, 0, len(all))
	for _, c := range all {
		if c.Agent == agent {
			out = append(out, c)
		}
	}
	return out
}

// Attendance returns attendance in append order
func (t *Tracker) Attendance() []types.AttendanceEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.events.Attendance()
}

// Week describes the active reporting window
type Week struct {
	Start  time.Time `json:"weekStart"`
	Friday time.Time `json:"invoiceFriday"`
	Days   []string  `json:"weekDays"`
}

// Week returns the active window
func (t *Tracker) Week() Week {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Week{
		Start:  t.weekStart,
		Friday: t.clock.FridayOfWeek(t.weekStart),
		Days:   t.clock.WeekDayKeys(t.weekStart),
	}
}

// WeekDays returns the day keys of the active week
func (t *Tracker) WeekDays() []string {
	return t.Week().Days
}

// Overrides returns a copy of the override map
func (t *Tracker) Overrides() types.HourOverrides {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.overrides.Clone()
}

func (t *Tracker) checkAgent(agent string) error {
	if !contains(t.agents, agent) {
		return fmt.Errorf("%w: %q", ErrUnknownAgent, agent)
	}
	return nil
}

func (t *Tracker) checkDay(day string) error {
	if _, err := t.clock.ParseDayKey(day); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDay, err)
	}
	return nil
}

func (t *Tracker) payrollZeros() types.Adjustments {
	out := make(types.Adjustments, len(t.payroll))
	for _, agent := range t.payroll {
		out[agent] = 0
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

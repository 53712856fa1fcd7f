// Package invoice reduces a week of accumulated hours for the payroll agents
// into monetary totals and a deterministic invoice number.
package invoice

import (
	"math"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/hours"
	"github.com/dennisdiepolder/teamops/internal/types"
)

const week = 7 * 24 * time.Hour

// Calibration pins the invoice numbering: the week whose Friday is BaseFriday
// gets BaseNumber, and every week after it counts up by one.
type Calibration struct {
	BaseFriday time.Time
	BaseNumber int
}

// DefaultCalibration numbers the week of Friday 2025-09-19 as invoice 24
var DefaultCalibration = Calibration{
	BaseFriday: time.Date(2025, 9, 19, 12, 0, 0, 0, time.UTC),
	BaseNumber: 24,
}

// Input carries the mutable state the invoice depends on
type Input struct {
	WeekStart      time.Time
	Commissions    types.Adjustments
	Bonuses        types.Adjustments
	NumberOverride *int
}

// Calculator computes invoice snapshots
type Calculator struct {
	clock       *clock.Normalizer
	agents      []string
	payroll     []string
	rate        float64
	calibration Calibration
}

// NewCalculator creates a calculator. agents is the full roster (for the
// computed-hours grid); payroll is the subset that gets invoiced.
func NewCalculator(c *clock.Normalizer, agents, payroll []string, rate float64, cal Calibration) *Calculator {
	return &Calculator{
		clock:       c,
		agents:      agents,
		payroll:     payroll,
		rate:        rate,
		calibration: cal,
	}
}

// Payroll returns the invoiced agents
func (c *Calculator) Payroll() []string {
	return c.payroll
}

// Compute builds the invoice for the week starting at in.WeekStart
func (c *Calculator) Compute(acc *hours.Accumulator, in Input) types.InvoiceSnapshot {
	days := c.clock.WeekDayKeys(in.WeekStart)
	friday := c.clock.FridayOfWeek(in.WeekStart)

	snap := types.InvoiceSnapshot{
		Number:        c.Number(friday, in.NumberOverride),
		NumberPinned:  in.NumberOverride != nil,
		InvoiceFriday: friday,
		WeekDays:      days,
		ComputedHours: acc.Grid(c.agents, days),
		HourlyRate:    c.rate,
		Lines:         make([]types.InvoiceLine, 0, len(c.payroll)),
	}

	for _, agent := range c.payroll {
		line := types.InvoiceLine{
			Agent:      agent,
			Hours:      make(map[string]float64, len(days)),
			Commission: in.Commissions[agent],
			Bonus:      in.Bonuses[agent],
		}
		for _, day := range days {
			h := acc.Hours(agent, day)
			line.Hours[day] = h
			line.SubtotalHours += h
		}
		line.HoursAmount = line.SubtotalHours * c.rate
		line.Amount = Amount(line.SubtotalHours, c.rate, line.Commission, line.Bonus)

		snap.GrandTotal += line.Amount
		snap.Lines = append(snap.Lines, line)
	}

	return snap
}

// Amount is subtotalHours*rate + commission + bonus
func Amount(subtotalHours, rate, commission, bonus float64) float64 {
	return subtotalHours*rate + commission + bonus
}

// Number returns the override when set, otherwise the base number offset by
// the whole number of weeks between friday and the calibration Friday. The
// offset is rounded half up, so anchors that are not an exact multiple of
// seven days away still land on the nearest week.
func (c *Calculator) Number(friday time.Time, override *int) int {
	if override != nil {
		return *override
	}

	weeks := float64(friday.Sub(c.calibration.BaseFriday)) / float64(week)
	if math.IsNaN(weeks) || math.IsInf(weeks, 0) {
		return c.calibration.BaseNumber
	}

	offset := math.Floor(weeks + 0.5)
	limit := float64(math.MaxInt32)
	if offset > limit {
		offset = limit
	} else if offset < -limit {
		offset = -limit
	}

	return c.calibration.BaseNumber + int(offset)
}

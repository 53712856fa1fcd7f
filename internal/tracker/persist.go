package tracker

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dennisdiepolder/teamops/internal/storage"
	"github.com/dennisdiepolder/teamops/internal/types"
)

// Load restores every persisted record. A missing record keeps its default;
// a corrupt one is logged and also keeps its default. Load never fails.
func (t *Tracker) Load(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var calls []types.CallEvent
	if !t.load(ctx, storage.KeyCalls, &calls) {
		calls = nil
	}
	var attendance []types.AttendanceEvent
	if !t.load(ctx, storage.KeyAttendance, &attendance) {
		attendance = nil
	}
	t.events.Replace(calls, attendance)

	var overrides types.HourOverrides
	if t.load(ctx, storage.KeyOverrides, &overrides) && overrides != nil {
		t.overrides = sanitizeOverrides(overrides)
	}

	var commissions types.Adjustments
	if t.load(ctx, storage.KeyCommissions, &commissions) && commissions != nil {
		t.commissions = t.withPayroll(commissions)
	}
	var bonuses types.Adjustments
	if t.load(ctx, storage.KeyBonuses, &bonuses) && bonuses != nil {
		t.bonuses = t.withPayroll(bonuses)
	}

	var number *int
	if t.load(ctx, storage.KeyInvoiceOverride, &number) {
		t.invoiceOverride = number
	}

	var weekStart *time.Time
	if t.load(ctx, storage.KeyWeekStart, &weekStart) && weekStart != nil && !weekStart.IsZero() {
		t.weekStart = t.clock.In(*weekStart)
	}

	t.logger.Info().
		Int("calls", len(calls)).
		Int("attendance", len(attendance)).
		Time("week_start", t.weekStart).
		Msg("state loaded")
}

// load decodes key into dst and reports whether it did
func (t *Tracker) load(ctx context.Context, key string, dst any) bool {
	err := storage.GetJSON(ctx, t.store, key, dst)
	if err == nil {
		return true
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.logger.Warn().Err(err).Str("key", key).Msg("failed to load record, using default")
	}
	return false
}

// persist writes v under key. Failures are logged and swallowed: in-memory
// state stays authoritative.
func (t *Tracker) persist(ctx context.Context, key string, v any) storage.Result {
	res := storage.PutJSON(ctx, t.store, key, v)
	t.metrics.RecordStoreWrite(key, res.Err)
	if !res.OK() {
		t.logger.Warn().Err(res.Err).Str("key", key).Msg("failed to persist record")
	}
	return res
}

func (t *Tracker) persistCalls(ctx context.Context) {
	t.persist(ctx, storage.KeyCalls, t.events.Calls())
}

func (t *Tracker) persistAttendance(ctx context.Context) {
	t.persist(ctx, storage.KeyAttendance, t.events.Attendance())
}

func (t *Tracker) persistWeekStart(ctx context.Context) {
	t.persist(ctx, storage.KeyWeekStart, t.weekStart.UTC())
}

// withPayroll guarantees every payroll agent has an entry
func (t *Tracker) withPayroll(adj types.Adjustments) types.Adjustments {
	out := t.payrollZeros()
	for agent, v := range adj {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		out[agent] = v
	}
	return out
}

func sanitizeOverrides(in types.HourOverrides) types.HourOverrides {
	out := make(types.HourOverrides, len(in))
	for agent, days := range in {
		if len(days) == 0 {
			continue
		}
		cp := make(map[string]float64, len(days))
		for day, v := range days {
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			cp[day] = v
		}
		out[agent] = cp
	}
	return out
}

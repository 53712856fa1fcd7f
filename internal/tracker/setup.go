package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/config"
	"github.com/dennisdiepolder/teamops/internal/dashboard"
	"github.com/dennisdiepolder/teamops/internal/invoice"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/storage"
	"github.com/rs/zerolog"
)

// phoenixOffset is used when the zone database cannot be loaded
const phoenixOffset = -7 * time.Hour

// FromConfig opens the configured store and returns a tracker with its state
// loaded
func FromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*Tracker, error) {
	loc, err := clock.LoadLocation(cfg.Timezone, phoenixOffset)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("using fixed offset timezone")
	}

	store, err := storage.NewStore(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	tr := New(clock.New(loc), store, OptionsFromConfig(cfg), m, logger)
	tr.Load(ctx)
	return tr, nil
}

// OptionsFromConfig maps the roster and invoicing settings onto Options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Agents:     cfg.Agents,
		Payroll:    cfg.PayrollAgents,
		Mirror:     cfg.ClockInMirror,
		Schedule:   dashboard.DefaultSchedule,
		HourlyRate: cfg.HourlyRate,
		Calibration: invoice.Calibration{
			BaseFriday: cfg.BaseInvoiceFriday,
			BaseNumber: cfg.BaseInvoiceNumber,
		},
		InvoiceFrom: cfg.InvoiceFrom,
		InvoiceTo:   cfg.InvoiceTo,
	}
}

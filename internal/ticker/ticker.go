package ticker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/rs/zerolog"
)

// Source produces the current dashboard snapshot
type Source interface {
	Dashboard() types.DashboardSnapshot
}

// Broadcaster fans a payload out to connected clients
type Broadcaster interface {
	Broadcast(message []byte)
	ClientCount() int
}

// Ticker periodically recomputes the dashboard so live status and open
// clock-ins advance, and pushes it to the hub
type Ticker struct {
	// mu keeps snapshots reaching the hub in the order they were computed
	mu sync.Mutex

	source   Source
	hub      Broadcaster
	interval time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(source Source, hub Broadcaster, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Ticker {
	return &Ticker{
		source:   source,
		hub:      hub,
		interval: interval,
		metrics:  m,
		logger:   logger.With().Str("component", "ticker").Logger(),
	}
}

// Start broadcasts once immediately and then on every tick until ctx is done
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")
	t.Tick()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case <-ticker.C:
			t.Tick()
		}
	}
}

// Tick recomputes and broadcasts one snapshot. Mutating handlers call it too
// so clients see changes without waiting for the next interval.
func (t *Ticker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	start := time.Now()
	snap := t.source.Dashboard()

	data, err := json.Marshal(snap)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to marshal dashboard snapshot")
		return
	}
	t.hub.Broadcast(data)

	online := 0
	for _, a := range snap.Agents {
		if a.Status == types.PresenceOnline {
			online++
		}
	}
	t.metrics.RecordTick(time.Since(start), online)

	t.logger.Debug().
		Str("today", snap.Today).
		Int("online", online).
		Int("clients", t.hub.ClientCount()).
		Msg("broadcasted dashboard")
}

// Package sim generates shift traffic against a running team-ops server:
// agents clock in, log calls at a jittered rate, and clock out on stop.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/rs/zerolog"
)

// OutcomeWeight pairs an outcome with a relative weight
type OutcomeWeight struct {
	Outcome types.Outcome
	Weight  float64
}

// DefaultWeights skews toward unanswered and declined calls
var DefaultWeights = []OutcomeWeight{
	{types.OutcomeNoAnswer, 5},
	{types.OutcomeNotInterested, 3},
	{types.OutcomeFollowUp, 2},
	{types.OutcomeAppointmentBooked, 1},
	{types.OutcomeBadNumber, 1},
	{types.OutcomeHungUp, 1},
	{types.OutcomeDNC, 0.5},
}

// API is the part of Client the simulator drives
type API interface {
	LogCall(ctx context.Context, agent string, outcome types.Outcome) (*types.CallEvent, error)
	ClockIn(ctx context.Context, agent string) error
	ClockOut(ctx context.Context, agent string) error
}

// Simulator runs one goroutine per agent
type Simulator struct {
	api         API
	callsPerMin float64
	weights     []OutcomeWeight
	logger      zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	callsSent  atomic.Int64
	clockSent  atomic.Int64
	failedSent atomic.Int64
}

// NewSimulator creates a simulator logging callsPerMin calls per agent
func NewSimulator(api API, callsPerMin float64, seed int64, logger zerolog.Logger) *Simulator {
	return &Simulator{
		api:         api,
		callsPerMin: callsPerMin,
		weights:     DefaultWeights,
		rng:         rand.New(rand.NewSource(seed)),
		logger:      logger.With().Str("component", "simulator").Logger(),
	}
}

// Run clocks every agent in and generates calls until ctx is done, then clocks
// them out. It blocks until every agent has stopped.
func (s *Simulator) Run(ctx context.Context, agents []string) {
	var wg sync.WaitGroup
	for _, agent := range agents {
		wg.Add(1)
		go func(a string) {
			defer wg.Done()
			s.runAgent(ctx, a)
		}(agent)
	}
	wg.Wait()

	s.logger.Info().
		Int64("calls", s.callsSent.Load()).
		Int64("clock_events", s.clockSent.Load()).
		Int64("failures", s.failedSent.Load()).
		Msg("simulation finished")
}

func (s *Simulator) runAgent(ctx context.Context, agent string) {
	if err := s.api.ClockIn(ctx, agent); err != nil {
		s.failedSent.Add(1)
		s.logger.Error().Err(err).Str("agent", agent).Msg("failed to clock in")
		return
	}
	s.clockSent.Add(1)
	s.logger.Info().Str("agent", agent).Msg("agent clocked in")

	defer func() {
		// ctx is already cancelled here
		outCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.api.ClockOut(outCtx, agent); err != nil {
			s.failedSent.Add(1)
			s.logger.Error().Err(err).Str("agent", agent).Msg("failed to clock out")
			return
		}
		s.clockSent.Add(1)
		s.logger.Info().Str("agent", agent).Msg("agent clocked out")
	}()

	if s.callsPerMin <= 0 {
		<-ctx.Done()
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.nextDelay()):
		}

		outcome := s.pickOutcome()
		if _, err := s.api.LogCall(ctx, agent, outcome); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.failedSent.Add(1)
			s.logger.Error().Err(err).Str("agent", agent).Msg("failed to log call")
			continue
		}
		s.callsSent.Add(1)
		s.logger.Debug().
			Str("agent", agent).
			Str("outcome", string(outcome)).
			Msg("logged call")
	}
}

// nextDelay is the base interval with +/-25% jitter
func (s *Simulator) nextDelay() time.Duration {
	base := time.Duration(float64(time.Minute) / s.callsPerMin)

	s.mu.Lock()
	jitter := time.Duration(float64(base) * (s.rng.Float64()*0.5 - 0.25))
	s.mu.Unlock()

	if d := base + jitter; d > time.Millisecond {
		return d
	}
	return time.Millisecond
}

func (s *Simulator) pickOutcome() types.Outcome {
	s.mu.Lock()
	roll := s.rng.Float64()
	s.mu.Unlock()
	return pickWeighted(roll, s.weights)
}

// pickWeighted maps roll in [0,1) onto weights
func pickWeighted(roll float64, weights []OutcomeWeight) types.Outcome {
	if len(weights) == 0 {
		return types.OutcomeNoAnswer
	}

	var total float64
	for _, w := range weights {
		total += w.Weight
	}

	r := roll * total
	for _, w := range weights {
		r -= w.Weight
		if r < 0 {
			return w.Outcome
		}
	}
	return weights[len(weights)-1].Outcome
}

// CallsSent returns how many calls were logged successfully
func (s *Simulator) CallsSent() int64 { return s.callsSent.Load() }

// ClockEventsSent returns how many clock-ins and clock-outs succeeded
func (s *Simulator) ClockEventsSent() int64 { return s.clockSent.Load() }

// Failures returns the number of rejected requests
func (s *Simulator) Failures() int64 { return s.failedSent.Load() }

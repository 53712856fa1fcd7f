package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dennisdiepolder/teamops/internal/sim"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// CLI flags
	var (
		serverURL   = flag.String("server-url", "http://localhost:8080", "team-ops server URL")
		agentList   = flag.String("agents", "", "Comma separated agents to simulate (default: the server roster)")
		callsPerMin = flag.Float64("calls-per-min", 2, "Calls logged per agent per minute")
		duration    = flag.Duration("duration", 0, "Stop after this long (default: until interrupted)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Setup logger
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().
		Str("service", "teamopssim").
		Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	client := sim.NewClient(*serverURL)
	if err := client.Health(ctx); err != nil {
		logger.Fatal().Err(err).Str("server_url", *serverURL).Msg("server is not reachable")
	}

	agents := splitList(*agentList)
	if len(agents) == 0 {
		cfg, err := client.Config(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to fetch roster")
		}
		agents = cfg.Agents
	}

	logger.Info().
		Str("server_url", *serverURL).
		Strs("agents", agents).
		Float64("calls_per_min", *callsPerMin).
		Msg("starting simulation, press Ctrl+C to stop")

	sim.NewSimulator(client, *callsPerMin, time.Now().UnixNano(), logger).Run(ctx, agents)
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Package cli implements teamopsctl, which reads the persisted team-ops state
// without running the server.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/dennisdiepolder/teamops/internal/config"
	"github.com/dennisdiepolder/teamops/internal/metrics"
	"github.com/dennisdiepolder/teamops/internal/tracker"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type trackerKey struct{}

func withTracker(ctx context.Context, tr *tracker.Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, tr)
}

func trackerFrom(ctx context.Context) (*tracker.Tracker, error) {
	tr, ok := ctx.Value(trackerKey{}).(*tracker.Tracker)
	if !ok {
		return nil, errors.New("tracker not initialized")
	}
	return tr, nil
}

func NewRootCmd(version string) *cobra.Command {
	var storeDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:          "teamopsctl",
		Short:        "Inspect and export team-ops state from the configured store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				Level(level).With().Timestamp().Logger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if storeDir != "" {
				cfg.Storage.Dir = storeDir
			}

			tr, err := tracker.FromConfig(cmd.Context(), cfg, metrics.New(), logger)
			if err != nil {
				return err
			}
			cmd.SetContext(withTracker(cmd.Context(), tr))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Override the file store directory (env: STORE_DIR)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(newDashboardCmd())
	cmd.AddCommand(newWeekCmd())
	cmd.AddCommand(newInvoiceCmd())
	cmd.AddCommand(newCallsCSVCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}

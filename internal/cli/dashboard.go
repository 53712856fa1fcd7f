package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print the live status of every agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trackerFrom(cmd.Context())
			if err != nil {
				return err
			}
			snap := tr.Dashboard()

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "AGENT\tSTATUS\tTODAY\tWEEK\tREMAINING\tCALLS\tTHIS HOUR\tLATE")
			for _, a := range snap.Agents {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%d\t%d\t%t\n",
					a.Agent, a.Status, a.HoursToday, a.HoursWeek, a.HoursRemaining,
					a.CallsToday, a.CallsThisHour, a.IsLate)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Print the active reporting week",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trackerFrom(cmd.Context())
			if err != nil {
				return err
			}
			week := tr.Week()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Week of %s, invoice Friday %s\n",
				week.Days[0], tr.Clock().DayKey(week.Friday))
			return nil
		},
	}
}

package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dennisdiepolder/teamops/internal/export"
	"github.com/spf13/cobra"
)

func newInvoiceCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Render the invoice for the active week",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trackerFrom(cmd.Context())
			if err != nil {
				return err
			}
			snap := tr.Invoice()

			var render func(io.Writer) error
			switch format {
			case "json":
				render = func(w io.Writer) error {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(snap)
				}
			case "html":
				render = func(w io.Writer) error { return export.WriteInvoiceHTML(w, snap) }
			case "xlsx":
				if out == "" {
					out = export.InvoiceFilename(snap, "xlsx")
				}
				render = func(w io.Writer) error { return export.WriteInvoiceXLSX(w, snap) }
			default:
				return fmt.Errorf("unknown format %q (want json, html or xlsx)", format)
			}

			return writeOutput(cmd, out, render)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, html or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newCallsCSVCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "calls-csv",
		Short: "Export every logged call as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trackerFrom(cmd.Context())
			if err != nil {
				return err
			}
			calls := tr.Calls("")
			if len(calls) == 0 {
				return export.ErrNothingToExport
			}
			return writeOutput(cmd, out, func(w io.Writer) error {
				return export.WriteCallsCSV(w, calls, tr.Clock())
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	return cmd
}

// writeOutput renders to stdout, or to path when one is given
func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "" {
		return render(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := render(w); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}

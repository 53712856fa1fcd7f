package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/types"
)

const wallClockLayout = "2006-01-02T15:04:05.000"

// CallsHeader is the first CSV row
var CallsHeader = []string{"time_utc", "time_phx", "agent", "outcome"}

// WriteCallsCSV writes one row per call in the order given. time_phx is the
// wall clock in the operating timezone without an offset.
func WriteCallsCSV(w io.Writer, calls []types.CallEvent, c *clock.Normalizer) error {
	if len(calls) == 0 {
		return ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CallsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, call := range calls {
		row := []string{
			call.Timestamp.UTC().Format(time.RFC3339Nano),
			c.In(call.Timestamp).Format(wallClockLayout),
			call.Agent,
			string(call.Outcome),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", call.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

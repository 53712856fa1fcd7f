// Package export renders call lists and invoice snapshots into CSV, HTML and
// XLSX documents. It only reads the snapshots it is handed.
package export

import (
	"errors"
	"fmt"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/shopspring/decimal"
)

// ErrNothingToExport is returned when there is no data to render
var ErrNothingToExport = errors.New("nothing to export")

const (
	shortDateLayout = "01/02/06"
	longDateLayout  = "Jan 2, 2006"
)

// InvoiceFilename is Invoice_<number>_<friday day key>.<ext>
func InvoiceFilename(snap types.InvoiceSnapshot, ext string) string {
	return fmt.Sprintf("Invoice_%d_%s.%s", snap.Number, snap.InvoiceFriday.Format(clock.DayKeyLayout), ext)
}

// CallsFilename is calls_<day key>.csv
func CallsFilename(day string) string {
	return "calls_" + day + ".csv"
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// round2 rounds half away from zero to cents
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// dayLabel renders a day key with layout, falling back to the raw key
func dayLabel(key, layout string) string {
	d, err := time.Parse(clock.DayKeyLayout, key)
	if err != nil {
		return key
	}
	return d.Format(layout)
}

func lineHours(line types.InvoiceLine, day string) float64 {
	return line.Hours[day]
}

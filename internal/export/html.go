package export

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/dennisdiepolder/teamops/internal/types"
)

type htmlDay struct {
	Date     string
	Hours    string
	Rate     string
	Subtotal string
}

type htmlLine struct {
	Agent         string
	Days          []htmlDay
	SubtotalHours string
	HoursAmount   string
	Commission    string
	Bonus         string
	Amount        string
}

type htmlInvoice struct {
	Number        int
	InvoiceDate   string
	CoverageStart string
	CoverageEnd   string
	FromAddress   []string
	ToAddress     []string
	Lines         []htmlLine
	GrandTotal    string
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Invoice #{{.Number}}</title>
<style>
body { font-family: 'Courier New', Courier, monospace; margin: 0; padding: 24px; color: #000; background-color: #f6f7fb; }
.invoice-container { max-width: 800px; margin: 0 auto; padding: 24px; background: #fff; border: 1px solid #e2e8f0; border-radius: 8px; }
.header { text-align: center; margin-bottom: 16px; font-size: 24px; font-weight: bold; }
.info-table, .details-table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
.details-table th, .details-table td { padding: 8px; border-bottom: 1px solid #eef2f6; text-align: left; }
.details-table th { text-transform: uppercase; }
.total-row td { font-weight: bold; }
.grand-total { text-align: right; font-size: 20px; font-weight: bold; margin-top: 24px; }
.agents { display: grid; grid-template-columns: 1fr 1fr; gap: 24px; }
hr { border: 0; border-top: 1px solid #94a3b8; margin: 16px 0; }
</style>
</head>
<body>
<div class="invoice-container">
<div class="header">INVOICE</div>
<hr />
<table class="info-table">
<tbody>
<tr>
<td><strong>Invoice #:</strong> {{.Number}}</td>
<td style="text-align: right;"><strong>Invoice Date:</strong> {{.InvoiceDate}}</td>
</tr>
<tr><td colspan="2"><strong>Coverage:</strong> {{.CoverageStart}} &ndash; {{.CoverageEnd}}</td></tr>
{{- if or .FromAddress .ToAddress}}
<tr>
<td style="vertical-align: top;"><pre><strong>From:</strong>{{range .FromAddress}}<br />{{.}}{{end}}</pre></td>
<td style="vertical-align: top;"><pre><strong>To:</strong>{{range .ToAddress}}<br />{{.}}{{end}}</pre></td>
</tr>
{{- end}}
</tbody>
</table>
<hr />
<div class="agents">
{{- range .Lines}}
<div>
<h3 style="margin: 0 0 8px 0; text-align: center;">{{.Agent}}</h3>
<table class="details-table">
<thead><tr><th>Date</th><th>Hours</th><th>Rate</th><th>Subtotal</th></tr></thead>
<tbody>
{{- range .Days}}
<tr><td>{{.Date}}</td><td>{{.Hours}}</td><td>{{.Rate}}</td><td>{{.Subtotal}}</td></tr>
{{- end}}
<tr><td><strong>Subtotal Hours</strong></td><td><strong>{{.SubtotalHours}}</strong></td><td></td><td><strong>{{.HoursAmount}}</strong></td></tr>
<tr><td>Commission</td><td></td><td></td><td>{{.Commission}}</td></tr>
<tr><td>Bonus</td><td></td><td></td><td>{{.Bonus}}</td></tr>
<tr class="total-row"><td colspan="3" style="text-align: right;">Total:</td><td>{{.Amount}}</td></tr>
</tbody>
</table>
</div>
{{- end}}
</div>
<hr />
<div class="grand-total">GRAND TOTAL: {{.GrandTotal}}</div>
</div>
</body>
</html>
`))

// WriteInvoiceHTML renders a printable invoice
func WriteInvoiceHTML(w io.Writer, snap types.InvoiceSnapshot) error {
	if len(snap.Lines) == 0 || len(snap.WeekDays) == 0 {
		return ErrNothingToExport
	}

	view := htmlInvoice{
		Number:        snap.Number,
		InvoiceDate:   snap.InvoiceFriday.Format(longDateLayout),
		CoverageStart: dayLabel(snap.WeekDays[0], longDateLayout),
		CoverageEnd:   dayLabel(snap.WeekDays[len(snap.WeekDays)-1], longDateLayout),
		FromAddress:   snap.FromAddress,
		ToAddress:     snap.ToAddress,
		GrandTotal:    money(snap.GrandTotal),
	}
	for _, line := range snap.Lines {
		hl := htmlLine{
			Agent:         strings.ToUpper(line.Agent),
			SubtotalHours: fixed2(line.SubtotalHours),
			HoursAmount:   money(line.HoursAmount),
			Commission:    money(line.Commission),
			Bonus:         money(line.Bonus),
			Amount:        money(line.Amount),
		}
		for _, day := range snap.WeekDays {
			h := lineHours(line, day)
			hl.Days = append(hl.Days, htmlDay{
				Date:     dayLabel(day, shortDateLayout),
				Hours:    fixed2(h),
				Rate:     money(snap.HourlyRate),
				Subtotal: money(h * snap.HourlyRate),
			})
		}
		view.Lines = append(view.Lines, hl)
	}

	if err := invoiceTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render invoice %d: %w", snap.Number, err)
	}
	return nil
}

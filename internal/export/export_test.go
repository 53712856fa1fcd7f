package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dennisdiepolder/teamops/internal/clock"
	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var phoenix = time.FixedZone("MST", -7*60*60)

func sampleInvoice() types.InvoiceSnapshot {
	days := []string{"2025-09-15", "2025-09-16", "2025-09-17", "2025-09-18", "2025-09-19"}
	return types.InvoiceSnapshot{
		Number:        24,
		InvoiceFriday: time.Date(2025, 9, 19, 23, 59, 59, 999e6, phoenix),
		WeekDays:      days,
		HourlyRate:    10,
		Lines: []types.InvoiceLine{
			{
				Agent:         "Via",
				Hours:         map[string]float64{"2025-09-15": 8.5, "2025-09-19": 4},
				SubtotalHours: 12.5,
				HoursAmount:   125,
				Commission:    20,
				Bonus:         5.25,
				Amount:        150.25,
			},
			{
				Agent:         "Bern",
				Hours:         map[string]float64{"2025-09-16": 1.0 / 3},
				SubtotalHours: 1.0 / 3,
				HoursAmount:   10.0 / 3,
				Amount:        10.0 / 3,
			},
		},
		GrandTotal: 150.25 + 10.0/3,
	}
}

func TestWriteCallsCSV(t *testing.T) {
	c := clock.New(phoenix)
	calls := []types.CallEvent{
		{ID: "c_2", Agent: "Via", Outcome: types.OutcomeAppointmentBooked, Timestamp: time.Date(2025, 9, 17, 17, 30, 0, 0, time.UTC)},
		{ID: "c_1", Agent: "Mel", Outcome: types.OutcomeNoAnswer, Timestamp: time.Date(2025, 9, 17, 3, 5, 9, 250e6, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCallsCSV(&buf, calls, c))

	want := strings.Join([]string{
		"time_utc,time_phx,agent,outcome",
		"2025-09-17T17:30:00Z,2025-09-17T10:30:00.000,Via,APPOINTMENT BOOKED",
		"2025-09-17T03:05:09.25Z,2025-09-16T20:05:09.250,Mel,NO ANSWER",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCallsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCallsCSV(&buf, nil, clock.New(phoenix))
	assert.ErrorIs(t, err, ErrNothingToExport)
	assert.Zero(t, buf.Len())
}

func TestWriteInvoiceHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInvoiceHTML(&buf, sampleInvoice()))
	out := buf.String()

	assert.Contains(t, out, "<title>Invoice #24</title>")
	assert.Contains(t, out, "Sep 19, 2025")
	assert.Contains(t, out, "Sep 15, 2025 &ndash; Sep 19, 2025")
	assert.Contains(t, out, "<h3 style=\"margin: 0 0 8px 0; text-align: center;\">VIA</h3>")
	assert.Contains(t, out, "<td>09/15/25</td><td>8.50</td><td>$10.00</td><td>$85.00</td>")
	assert.Contains(t, out, "<td>09/16/25</td><td>0.33</td>")
	assert.Contains(t, out, "$150.25")
	assert.Contains(t, out, "GRAND TOTAL: $153.58")
}

func TestWriteInvoiceHTMLAddresses(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInvoiceHTML(&buf, sampleInvoice()))
	assert.NotContains(t, buf.String(), "<strong>From:</strong>")

	snap := sampleInvoice()
	snap.FromAddress = []string{"12 Main St", "Springfield"}
	snap.ToAddress = []string{"Acme & Co"}

	buf.Reset()
	require.NoError(t, WriteInvoiceHTML(&buf, snap))
	out := buf.String()
	assert.Contains(t, out, "<pre><strong>From:</strong><br />12 Main St<br />Springfield</pre>")
	assert.Contains(t, out, "<pre><strong>To:</strong><br />Acme &amp; Co</pre>")
	assert.Contains(t, out, "Sep 15, 2025 &ndash; Sep 19, 2025")
}

func TestWriteInvoiceHTMLEscapesAgentNames(t *testing.T) {
	snap := sampleInvoice()
	snap.Lines[0].Agent = "<script>"

	var buf bytes.Buffer
	require.NoError(t, WriteInvoiceHTML(&buf, snap))
	assert.NotContains(t, buf.String(), "<SCRIPT>")
	assert.Contains(t, buf.String(), "&lt;SCRIPT&gt;")
}

func TestWriteInvoiceXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInvoiceXLSX(&buf, sampleInvoice()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Via", "Bern"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "24", v)

	v, err = f.GetCellValue("Summary", "A7")
	require.NoError(t, err)
	assert.Equal(t, "Via", v)

	v, err = f.GetCellValue("Via", "B2")
	require.NoError(t, err)
	assert.Equal(t, "8.5", v)

	v, err = f.GetCellValue("Via", "A10")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
}

func TestExportsRejectEmptyInvoice(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteInvoiceHTML(&buf, types.InvoiceSnapshot{}), ErrNothingToExport)
	assert.ErrorIs(t, WriteInvoiceXLSX(&buf, types.InvoiceSnapshot{}), ErrNothingToExport)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "Invoice_24_2025-09-19.html", InvoiceFilename(sampleInvoice(), "html"))
	assert.Equal(t, "calls_2025-09-17.csv", CallsFilename("2025-09-17"))
}

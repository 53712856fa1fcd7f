package export

import (
	"fmt"
	"io"

	"github.com/dennisdiepolder/teamops/internal/types"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// WriteInvoiceXLSX writes a workbook with a summary sheet and one sheet per
// payroll agent
func WriteInvoiceXLSX(w io.Writer, snap types.InvoiceSnapshot) error {
	if len(snap.Lines) == 0 || len(snap.WeekDays) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	currency, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	summary := [][]any{
		{"Invoice #", snap.Number},
		{"Invoice Date", snap.InvoiceFriday.Format(longDateLayout)},
		{"Coverage", dayLabel(snap.WeekDays[0], longDateLayout) + " - " + dayLabel(snap.WeekDays[len(snap.WeekDays)-1], longDateLayout)},
		{"Hourly Rate", snap.HourlyRate},
		{},
		{"Agent", "Hours", "Hours Amount", "Commission", "Bonus", "Total"},
	}
	for _, line := range snap.Lines {
		summary = append(summary, []any{
			line.Agent,
			round2(line.SubtotalHours),
			round2(line.HoursAmount),
			round2(line.Commission),
			round2(line.Bonus),
			round2(line.Amount),
		})
	}
	summary = append(summary, []any{"Grand Total", nil, nil, nil, nil, round2(snap.GrandTotal)})

	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	headerRow := 6
	lastRow := len(summary)
	if err := f.SetCellStyle(summarySheet, cell(1, headerRow), cell(6, headerRow), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, cell(3, headerRow+1), cell(6, lastRow), currency); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}
	if err := f.SetCellStyle(summarySheet, cell(1, lastRow), cell(1, lastRow), bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}

	for _, line := range snap.Lines {
		rows := [][]any{{"Date", "Hours", "Rate", "Subtotal"}}
		for _, day := range snap.WeekDays {
			h := lineHours(line, day)
			rows = append(rows, []any{dayLabel(day, shortDateLayout), round2(h), snap.HourlyRate, round2(h * snap.HourlyRate)})
		}
		rows = append(rows,
			[]any{"Subtotal Hours", round2(line.SubtotalHours), nil, round2(line.HoursAmount)},
			[]any{"Commission", nil, nil, round2(line.Commission)},
			[]any{"Bonus", nil, nil, round2(line.Bonus)},
			[]any{"Total", nil, nil, round2(line.Amount)},
		)

		if _, err := f.NewSheet(line.Agent); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", line.Agent, err)
		}
		if err := writeRows(f, line.Agent, rows); err != nil {
			return err
		}
		if err := f.SetCellStyle(line.Agent, cell(1, 1), cell(4, 1), bold); err != nil {
			return fmt.Errorf("failed to style sheet %s: %w", line.Agent, err)
		}
		if err := f.SetCellStyle(line.Agent, cell(3, 2), cell(4, len(rows)), currency); err != nil {
			return fmt.Errorf("failed to style sheet %s: %w", line.Agent, err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell(c+1, r+1), v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell(c+1, r+1), err)
			}
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

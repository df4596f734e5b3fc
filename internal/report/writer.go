// =============================================================================
// iDoklad to Fakturoid - Run Report Writer
// =============================================================================
//
// This module writes an XLSX workbook recording what one import run created
// in Fakturoid. It is written after the run whether it finished or stopped
// at an error, so the operator knows which invoices already exist before
// rerunning a trimmed export.
//
// WORKBOOK LAYOUT:
//   Invoices sheet (active):
//     iDoklad Number | Fakturoid ID | Fakturoid Number | Total | Currency | URL
//     2016-0001      | 301          | 2016-0001        | 121   | CZK      | https://...
//
//   Run sheet:
//     Run ID       | 5f0c...
//     Source File  | invoices.json
//     Generated At | 2016-03-01T10:00:00Z
//     Invoices     | 2
//     Created      | 1
//     Status       | Subject with reg. no. ... (or "OK")
//
// FILE NAMING:
//   The path may contain {run_id}, {timestamp}, {date}, {time} placeholders,
//   e.g. "reports/import_{date}_{run_id}.xlsx".
//
// =============================================================================

package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/types"
	"github.com/ginjaninja78/idoklad2fakturoid/pkg/utils"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// InvoicesSheet lists the created invoices, one per row.
	InvoicesSheet = "Invoices"

	// RunSheet holds the run metadata as label/value pairs.
	RunSheet = "Run"

	// StatusOK is the run status of a run that imported everything.
	StatusOK = "OK"

	defaultSheet = "Sheet1"
)

// InvoiceHeaders are the column headers of the invoices sheet.
var InvoiceHeaders = []string{
	"iDoklad Number",
	"Fakturoid ID",
	"Fakturoid Number",
	"Total",
	"Currency",
	"URL",
}

// =============================================================================
// WRITE
// =============================================================================

// Write renders summary into a workbook and saves it.
//
// PARAMETERS:
//   - pathFormat: Output path, placeholders allowed.
//   - summary: The run to record.
//
// RETURNS:
//   - The path the report was written to.
//   - An error if the workbook cannot be built or saved.
func Write(pathFormat string, summary types.RunSummary) (string, error) {
	path := utils.GenerateFileName(pathFormat, map[string]string{"run_id": summary.RunID})

	f, err := Build(summary, time.Now().UTC())
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

// Build creates the workbook in memory.
func Build(summary types.RunSummary, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(defaultSheet, InvoicesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create %s sheet: %w", InvoicesSheet, err)
	}
	if _, err := f.NewSheet(RunSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create %s sheet: %w", RunSheet, err)
	}

	if err := writeInvoices(f, summary.Imported); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRun(f, summary, generatedAt); err != nil {
		f.Close()
		return nil, err
	}

	index, _ := f.GetSheetIndex(InvoicesSheet)
	f.SetActiveSheet(index)

	return f, nil
}

// =============================================================================
// SHEETS
// =============================================================================

func writeInvoices(f *excelize.File, imported []types.ImportedInvoice) error {
	headers := make([]any, len(InvoiceHeaders))
	for i, h := range InvoiceHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(InvoicesSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write report headers: %w", err)
	}

	for i, inv := range imported {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		row := []any{
			inv.SourceNumber,
			inv.ID,
			inv.Number,
			inv.Total.InexactFloat64(),
			inv.Currency,
			inv.URL,
		}
		if err := f.SetSheetRow(InvoicesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i+1, err)
		}
	}

	_ = f.SetColWidth(InvoicesSheet, "A", "C", 18)
	_ = f.SetColWidth(InvoicesSheet, "F", "F", 60)
	return nil
}

func writeRun(f *excelize.File, summary types.RunSummary, generatedAt time.Time) error {
	status := StatusOK
	if summary.Error != "" {
		status = summary.Error
	}

	rows := [][]any{
		{"Run ID", summary.RunID},
		{"Source File", summary.SourceFile},
		{"Generated At", generatedAt.Format(time.RFC3339)},
		{"Invoices", summary.Total},
		{"Created", len(summary.Imported)},
		{"Status", status},
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RunSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write run sheet: %w", err)
		}
	}

	_ = f.SetColWidth(RunSheet, "A", "A", 16)
	_ = f.SetColWidth(RunSheet, "B", "B", 40)
	return nil
}

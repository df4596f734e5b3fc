// =============================================================================
// iDoklad to Fakturoid - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - importer
//   - report
//
// =============================================================================

package types

import "github.com/shopspring/decimal"

// =============================================================================
// RUN RESULT TYPES
// =============================================================================

// ImportedInvoice records one invoice created in Fakturoid during a run.
type ImportedInvoice struct {
	// SourceNumber is the iDoklad document number the invoice came from.
	SourceNumber string

	// ID is the Fakturoid invoice id.
	ID int64

	// Number is the invoice number Fakturoid stored.
	Number string

	// Total is the invoice total computed by Fakturoid.
	Total decimal.Decimal

	// Currency is the invoice currency code.
	Currency string

	// URL points at the invoice in the Fakturoid web UI.
	URL string
}

// RunSummary describes a finished (or aborted) import run.
type RunSummary struct {
	// RunID identifies the run in logs and the report.
	RunID string

	// SourceFile is the export file that was imported.
	SourceFile string

	// Total is the number of invoices in the export.
	Total int

	// Imported lists the invoices created before the run ended.
	Imported []ImportedInvoice

	// Error is the message that aborted the run, empty on success.
	Error string
}

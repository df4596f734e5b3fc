// =============================================================================
// iDoklad to Fakturoid - Batch Import Driver
// =============================================================================
//
// This module drives one import run: it makes sure the Fakturoid subject
// list is cached, then walks the iDoklad export in file order and creates
// one Fakturoid invoice per record.
//
// PROCESSING PIPELINE:
//   1. Get the subject list from the cache, fetching it on a miss
//   2. For each invoice in the export:
//      a. Print "Processing iDoklad invoice <number>"
//      b. Convert it (subject lookup, payment method, lines)
//      c. POST it to Fakturoid
//      d. Print "Created Fakturoid invoice <number>"
//   3. Stop at the first failure
//
// Invoices created before a failure stay in Fakturoid. Rerunning the same
// export creates them again, so fix the cause and trim the export first.
//
// =============================================================================

package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/cache"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/converter"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/fakturoid"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/idoklad"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/types"
)

// API is the part of the Fakturoid client the importer needs.
type API interface {
	ListSubjects(ctx context.Context) ([]fakturoid.Subject, error)
	CreateInvoice(ctx context.Context, invoice *fakturoid.Invoice) (*fakturoid.CreatedInvoice, error)
}

// Result summarizes a run.
type Result struct {
	// Total is the number of invoices in the export.
	Total int

	// Imported lists the invoices created, in export order. On an aborted
	// run it holds everything created before the failure.
	Imported []types.ImportedInvoice

	// Elapsed is the wall time of the run.
	Elapsed time.Duration
}

// Importer runs imports against one Fakturoid account.
type Importer struct {
	api    API
	cache  *cache.Cache
	out    io.Writer
	logger *zap.Logger
}

// New creates an importer.
//
// PARAMETERS:
//   - api: The Fakturoid client.
//   - c: A loaded cache. Fetched subjects are saved into it.
//   - out: Where progress lines are printed (usually stdout).
//   - logger: Optional; nil disables logging.
func New(api API, c *cache.Cache, out io.Writer, logger *zap.Logger) *Importer {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		api:    api,
		cache:  c,
		out:    out,
		logger: logger.Named("importer"),
	}
}

// =============================================================================
// SUBJECTS
// =============================================================================

// Subjects returns the Fakturoid subject list, calling the API only when the
// cache does not hold it yet.
func (i *Importer) Subjects(ctx context.Context) ([]fakturoid.Subject, error) {
	subjects, err := cache.Remember(i.cache, cache.SubjectsKey, func() ([]fakturoid.Subject, error) {
		fmt.Fprintln(i.out, "Loading subjects from Fakturoid API")
		return i.api.ListSubjects(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load Fakturoid subjects: %w", err)
	}

	i.logger.Debug("subjects ready", zap.Int("count", len(subjects)))
	return subjects, nil
}

// =============================================================================
// RUN
// =============================================================================

// Run imports every invoice of export, in order.
//
// RETURNS:
//   - The run result. It is never nil, also when an error is returned.
//   - The first error met. Errors from conversion or the API are wrapped
//     with the iDoklad document number and can be matched with errors.As.
func (i *Importer) Run(ctx context.Context, export *idoklad.Export) (*Result, error) {
	startTime := time.Now()
	result := &Result{Total: len(export.Data)}
	defer func() {
		result.Elapsed = time.Since(startTime)
	}()

	subjects, err := i.Subjects(ctx)
	if err != nil {
		return result, err
	}

	for idx := range export.Data {
		src := &export.Data[idx]

		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("import interrupted before invoice %s: %w", src.DocumentNumber, err)
		}

		fmt.Fprintf(i.out, "Processing iDoklad invoice %s\n", src.DocumentNumber)

		imported, err := i.importInvoice(ctx, src, subjects)
		if err != nil {
			i.logger.Warn("import aborted",
				zap.String("document_number", src.DocumentNumber),
				zap.Int("position", idx+1),
				zap.Int("created", len(result.Imported)),
				zap.Error(err),
			)
			return result, fmt.Errorf("iDoklad invoice %s: %w", src.DocumentNumber, err)
		}

		result.Imported = append(result.Imported, *imported)
		fmt.Fprintf(i.out, "Created Fakturoid invoice %s\n", imported.Number)
	}

	result.Elapsed = time.Since(startTime)
	i.logger.Info("import finished",
		zap.Int("created", len(result.Imported)),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// importInvoice converts and creates a single invoice.
func (i *Importer) importInvoice(ctx context.Context, src *idoklad.Invoice, subjects []fakturoid.Subject) (*types.ImportedInvoice, error) {
	invoice, err := converter.ConvertInvoice(src, subjects)
	if err != nil {
		return nil, err
	}

	created, err := i.api.CreateInvoice(ctx, invoice)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("invoice created",
		zap.String("document_number", src.DocumentNumber),
		zap.Int64("id", created.ID),
		zap.String("number", created.Number),
	)

	return &types.ImportedInvoice{
		SourceNumber: src.DocumentNumber,
		ID:           created.ID,
		Number:       created.Number,
		Total:        created.Total,
		Currency:     created.Currency,
		URL:          created.HTMLURL,
	}, nil
}

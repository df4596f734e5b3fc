// =============================================================================
// iDoklad to Fakturoid - Import
// =============================================================================
//
// This file implements the import run behind the root command.
//
// PROCESSING PIPELINE:
//   1. Load and validate configuration (fails before any network traffic)
//   2. Load the cache (an unreadable cache is only a warning)
//   3. Make sure the Fakturoid subject list is cached
//   4. Read and validate the iDoklad export
//   5. Import invoices one by one, stopping at the first error
//   6. Write the XLSX run report, if configured, also after a failure
//   7. Print "Done."
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/cache"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/config"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/fakturoid"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/idoklad"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/importer"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/report"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/types"
)

// runImport imports the export at filePath.
func runImport(cmd *cobra.Command, filePath string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: CONFIGURATION
	// =========================================================================

	if settingsErr != nil {
		return settingsErr
	}
	cfg, err := config.Load(settings)
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))
	log.Debug("configuration loaded",
		zap.String("account", cfg.Fakturoid.Account),
		zap.String("base_url", cfg.Fakturoid.BaseURL),
		zap.String("cache_file", cfg.CacheFile),
	)

	// =========================================================================
	// STEP 2: CACHE
	// =========================================================================

	store := cache.New(cfg.CacheFile, log)
	if err := store.Load(); err != nil {
		log.Warn("ignoring unreadable cache file", zap.Error(err))
	}

	// =========================================================================
	// STEP 3: SUBJECTS
	// =========================================================================

	client, err := fakturoid.NewClient(fakturoid.Options{
		BaseURL:   cfg.Fakturoid.BaseURL,
		Account:   cfg.Fakturoid.Account,
		Email:     cfg.Fakturoid.Email,
		APIKey:    cfg.Fakturoid.APIKey,
		UserAgent: cfg.Fakturoid.UserAgent,
		Timeout:   cfg.Fakturoid.Timeout,
		RateLimit: cfg.Fakturoid.RateLimit,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	log.Debug("fakturoid client ready", zap.String("account_url", client.AccountURL()))

	imp := importer.New(client, store, out, log)
	if _, err := imp.Subjects(ctx); err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: EXPORT FILE
	// =========================================================================

	export, err := idoklad.Parse(filePath)
	if err != nil {
		return err
	}
	log.Info("export loaded", zap.String("file", filePath), zap.Int("invoices", len(export.Data)))

	// =========================================================================
	// STEP 5: IMPORT
	// =========================================================================

	result, runErr := imp.Run(ctx, export)

	// =========================================================================
	// STEP 6: REPORT
	// =========================================================================

	if cfg.ReportFile != "" {
		summary := types.RunSummary{
			RunID:      runID,
			SourceFile: filePath,
			Total:      result.Total,
			Imported:   result.Imported,
		}
		if runErr != nil {
			summary.Error = runErr.Error()
		}

		path, err := report.Write(cfg.ReportFile, summary)
		if err != nil {
			log.Error("failed to write run report", zap.Error(err))
		} else {
			log.Info("run report written", zap.String("path", path))
		}
	}

	if runErr != nil {
		return runErr
	}

	log.Debug("import complete",
		zap.Int("created", len(result.Imported)),
		zap.Duration("elapsed", result.Elapsed),
	)
	fmt.Fprintln(out, "Done.")
	return nil
}

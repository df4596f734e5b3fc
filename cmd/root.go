// =============================================================================
// iDoklad to Fakturoid - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Called with a file
// argument, the root command imports that iDoklad export into Fakturoid.
//
// COBRA CLI STRUCTURE:
//   rootCmd (idoklad2fakturoid FILE)
//   ├── cacheCmd (idoklad2fakturoid cache)
//   │   ├── cacheShowCmd  (idoklad2fakturoid cache show)
//   │   └── cacheClearCmd (idoklad2fakturoid cache clear)
//   └── versionCmd (idoklad2fakturoid version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up flags
//   2. Initializing viper (flags > env > config file > defaults)
//   3. Loading a .env file, if present, into the environment
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/config"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file (--config).
var cfgFile string

// verbose switches the log level to debug.
var verbose bool

// settings is the viper instance built by initConfig.
var settings *viper.Viper

// settingsErr is set when initConfig fails. Commands return it.
var settingsErr error

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd imports an iDoklad export when called with a file argument.
var rootCmd = &cobra.Command{
	Use:   "idoklad2fakturoid FILE",
	Short: "Import invoices exported from iDoklad into Fakturoid",
	Long: `idoklad2fakturoid reads a JSON export of issued invoices from iDoklad
(the output of /IssuedInvoices/Expanded) and creates the same invoices in
Fakturoid through its API.

Customers are matched by registration number (IČO). Every purchaser must
already exist as a subject in Fakturoid. The subject list is fetched once
and kept in a local cache file; delete it (or run "cache clear") after
adding subjects in Fakturoid.

The import stops at the first invoice that cannot be converted or created.
Invoices created before that point stay in Fakturoid.

Example Usage:
  idoklad2fakturoid --fakturoid-account NAME --fakturoid-email EMAIL --fakturoid-api-key API_KEY invoices.json
  idoklad2fakturoid --config ./idoklad2fakturoid.yaml invoices.json
  IDOKLAD2FAKTUROID_FAKTUROID_API_KEY=... idoklad2fakturoid invoices.json
  idoklad2fakturoid cache show`,

	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0])
	},

	SilenceUsage:  true,
	SilenceErrors: true,
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). SIGINT and SIGTERM
// cancel the command context, stopping the import before the next request.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// flagBindings maps config keys to the flags that set them.
var flagBindings = map[string]func() *pflag.Flag{
	config.KeyFakturoidAccount:   func() *pflag.Flag { return rootCmd.Flags().Lookup("fakturoid-account") },
	config.KeyFakturoidEmail:     func() *pflag.Flag { return rootCmd.Flags().Lookup("fakturoid-email") },
	config.KeyFakturoidAPIKey:    func() *pflag.Flag { return rootCmd.Flags().Lookup("fakturoid-api-key") },
	config.KeyFakturoidBaseURL:   func() *pflag.Flag { return rootCmd.Flags().Lookup("fakturoid-url") },
	config.KeyFakturoidTimeout:   func() *pflag.Flag { return rootCmd.Flags().Lookup("timeout") },
	config.KeyFakturoidRateLimit: func() *pflag.Flag { return rootCmd.Flags().Lookup("rate-limit") },
	config.KeyReportFile:         func() *pflag.Flag { return rootCmd.Flags().Lookup("report") },
	config.KeyCacheFile:          func() *pflag.Flag { return rootCmd.PersistentFlags().Lookup("cache-file") },
	config.KeyLogFormat:          func() *pflag.Flag { return rootCmd.PersistentFlags().Lookup("log-format") },
}

func init() {
	cobra.OnInitialize(initConfig)

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Path to a YAML configuration file (default ./idoklad2fakturoid.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().String("cache-file", config.DefaultCacheFile,
		"Path to the local cache file")
	rootCmd.PersistentFlags().String("log-format", config.DefaultLogFormat,
		"Log format: console or json")

	// ==========================================================================
	// IMPORT FLAGS
	// ==========================================================================

	rootCmd.Flags().String("fakturoid-account", "", "Fakturoid account name (from the Fakturoid URL)")
	rootCmd.Flags().String("fakturoid-email", "", "Fakturoid login e-mail")
	rootCmd.Flags().String("fakturoid-api-key", "", "Fakturoid API key")
	rootCmd.Flags().String("fakturoid-url", config.DefaultBaseURL, "Fakturoid API base URL")
	rootCmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout of a single Fakturoid API request")
	rootCmd.Flags().Float64("rate-limit", 0, "Maximum Fakturoid API requests per second (0 = unlimited)")
	rootCmd.Flags().String("report", "", "Write an XLSX report of created invoices to this path ({run_id}, {date}, {timestamp} allowed)")
}

// initConfig builds the viper instance once flags are parsed.
func initConfig() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	settings, settingsErr = config.NewViper(cfgFile)
	if settingsErr != nil {
		return
	}

	for key, lookup := range flagBindings {
		if err := settings.BindPFlag(key, lookup()); err != nil {
			settingsErr = fmt.Errorf("failed to bind flag for %s: %w", key, err)
			return
		}
	}

	if verbose {
		settings.Set(config.KeyLogLevel, "debug")
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// newLogger builds the logger from the log.* settings. It does not require
// the Fakturoid credentials, so the cache commands can use it too.
func newLogger() (*zap.Logger, error) {
	if settingsErr != nil {
		return nil, settingsErr
	}

	log, err := logger.New(&logger.Config{
		Level:  settings.GetString(config.KeyLogLevel),
		Format: settings.GetString(config.KeyLogFormat),
		Output: settings.GetString(config.KeyLogOutput),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// =============================================================================
// iDoklad to Fakturoid - Cache Commands
// =============================================================================
//
// COMMAND USAGE:
//   idoklad2fakturoid cache show   - List the cached Fakturoid subjects
//   idoklad2fakturoid cache clear  - Delete the cache file
//
// Neither command talks to Fakturoid, so no credentials are needed.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/cache"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/config"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/fakturoid"
	"github.com/ginjaninja78/idoklad2fakturoid/pkg/utils"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local cache",
	Long: `The cache file holds the list of Fakturoid subjects so it is not
fetched on every run. It never expires: clear it after adding or changing
subjects in Fakturoid.`,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the cached Fakturoid subjects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		return showCache(cmd.OutOrStdout(), store)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		if !utils.FileExists(store.Path()) {
			fmt.Fprintf(cmd.OutOrStdout(), "No cache file at %s\n", store.Path())
			return nil
		}
		if err := store.Remove(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed cache file %s\n", store.Path())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCache loads the configured cache file.
func openCache() (*cache.Cache, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	store := cache.New(settings.GetString(config.KeyCacheFile), log)
	if err := store.Load(); err != nil {
		log.Warn("ignoring unreadable cache file", zap.Error(err))
	}
	return store, nil
}

// showCache prints the cache location and its subjects as a table.
func showCache(out io.Writer, store *cache.Cache) error {
	fmt.Fprintf(out, "Cache file: %s\n", store.Path())

	var subjects []fakturoid.Subject
	found, err := store.Get(cache.SubjectsKey, &subjects)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, "No subjects cached.")
		return nil
	}

	fmt.Fprintf(out, "Subjects: %d\n\n", len(subjects))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREG. NO.\tVAT NO.\tNAME")
	for _, s := range subjects {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.ID, s.RegistrationNo, s.VatNo, s.Name)
	}
	return w.Flush()
}

// =============================================================================
// iDoklad to Fakturoid - Main Entry Point
// =============================================================================
//
// USAGE:
//   idoklad2fakturoid [flags] FILE  - Import an iDoklad export into Fakturoid
//   idoklad2fakturoid cache show    - List the cached Fakturoid subjects
//   idoklad2fakturoid cache clear   - Delete the cache file
//   idoklad2fakturoid version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Import logic, API client, cache, config
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/idoklad2fakturoid/cmd"
)

func main() {
	cmd.Execute()
}

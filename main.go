// =============================================================================
// Tax Hall Analytics - Main Entry Point
// =============================================================================
//
// This is the main entry point for the hallstat CLI. It delegates command
// execution to the cmd package.
//
// USAGE:
//   hallstat analyze FILE   - Analyse one ledger and export its summary
//   hallstat report FILE    - Generate the management report for one ledger
//   hallstat process        - Analyse every ledger in the input directory
//   hallstat watch          - Analyse ledgers as they arrive
//   hallstat version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Ingestion, aggregation, export and report logic
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/tax-hall-analytics/cmd"
)

func main() {
	cmd.Execute()
}

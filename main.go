// =============================================================================
// XLS to SEPA Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the XLS to SEPA Converter CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   xls2sepa suggest FILE     - Show the suggested column mapping
//   xls2sepa preview FILE     - Show the first payments and the batch total
//   xls2sepa generate FILE... - Write SEPA pain.001 credit transfer files
//   xls2sepa version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core business logic (not for external import)
//   - pkg/utils/     : Output naming and failure log writing
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}

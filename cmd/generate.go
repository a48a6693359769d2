// =============================================================================
// XLS to SEPA Converter - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, which converts one or more
// spreadsheets into SEPA credit transfer files.
//
// COMMAND USAGE:
//   xls2sepa generate payments.xlsx                 # Write to output_dir
//   xls2sepa generate payments.xlsx -o batch.xml    # Write to a given file
//   xls2sepa generate a.xlsx b.xls c.csv            # One file per input
//   xls2sepa generate payments.xlsx --dry-run       # Build and check only
//
// FLOW:
//   1. Build the converter from the loaded configuration
//   2. Process each input file concurrently
//   3. Collect results and print a summary
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/converter"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// generateOpts holds the per-run overrides bound to flags.
var generateOpts converter.Options

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate FILE...",
	Short: "Convert spreadsheets to SEPA pain.001 XML",
	Long: `The generate command reads each spreadsheet, builds a payment batch from the
rows that pass validation and writes it as an ISO 20022 pain.001.001.03
credit transfer file.

Files are processed concurrently. Errors in one file do not affect the
processing of others.

On success:
  - The generated XML is placed in the output directory (or at --output)
  - Skipped rows and SEPA field warnings go to <output>.errors.txt

On error:
  - No XML file is written
  - The failure log still lists the skipped rows`,

	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		if generateOpts.OutputPath != "" && len(args) > 1 {
			return errors.New("--output can only be used with a single input file")
		}
		return runGenerate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	addMappingFlags(generateCmd, &generateOpts)
	addSenderFlags(generateCmd, &generateOpts)

	generateCmd.Flags().StringVarP(
		&generateOpts.OutputPath,
		"output",
		"o",
		"",
		"Output file (default: a generated name in output_dir)",
	)

	generateCmd.Flags().BoolVar(
		&generateOpts.DryRun,
		"dry-run",
		false,
		"Build and validate the document without writing any file",
	)

	generateCmd.Flags().BoolVar(
		&generateOpts.Strict,
		"strict",
		false,
		"Reject a batch when any payment raises a SEPA field warning",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// fileResult pairs a converter result with its input and error.
type fileResult struct {
	path   string
	result *converter.Result
	err    error
}

// runGenerate is the main function for the generate command.
func runGenerate(cmd *cobra.Command, files []string) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	conv, err := converter.New(appConfig, logger)
	if err != nil {
		return err
	}

	// =========================================================================
	// CONCURRENT PROCESSING
	// =========================================================================
	// The converter holds no per-run state, so one instance serves every
	// goroutine.

	var wg sync.WaitGroup
	results := make(chan fileResult, len(files))

	for _, file := range files {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			res, err := conv.Run(path, generateOpts)
			results <- fileResult{path: path, result: res, err: err}
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// COLLECT RESULTS
	// =========================================================================

	var successCount, errorCount int
	for r := range results {
		name := filepath.Base(r.path)
		if r.err != nil {
			errorCount++
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.err)
			if r.result != nil && r.result.FailureLog != "" {
				fmt.Fprintf(out, "    failure log: %s\n", r.result.FailureLog)
			}
			continue
		}

		successCount++
		res := r.result
		target := res.OutputFile
		if generateOpts.DryRun {
			target = "(dry run)"
		}
		fmt.Fprintf(out, "  ✓ %s -> %s: %d payment(s), EUR %s, %d row(s) skipped\n",
			name, target, res.Batch.Succeeded(), res.Batch.Total(), res.Batch.Failed)
		if res.FailureLog != "" {
			fmt.Fprintf(out, "    failure log: %s\n", res.FailureLog)
		}
	}

	// =========================================================================
	// SUMMARY
	// =========================================================================

	if len(files) > 1 {
		fmt.Fprintln(out, "\n=== Processing Complete ===")
		fmt.Fprintf(out, "Total files:     %d\n", len(files))
		fmt.Fprintf(out, "Successful:      %d\n", successCount)
		fmt.Fprintf(out, "Errors:          %d\n", errorCount)
		fmt.Fprintf(out, "Time elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))
	}

	if errorCount > 0 {
		return fmt.Errorf("%d of %d file(s) failed", errorCount, len(files))
	}
	return nil
}

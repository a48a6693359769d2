// =============================================================================
// XLS to SEPA Converter - Preview Command
// =============================================================================
//
// This file defines the 'preview' command. It builds the payment batch
// without writing anything and shows the first records, the counters and
// the total, so the user can check the mapping before generating.
//
// COMMAND USAGE:
//   xls2sepa preview payments.xlsx
//   xls2sepa preview payments.csv --amount-column Summe --rows 20
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/amount"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/batch"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/converter"
)

var (
	previewOpts converter.Options

	// previewRows overrides preview_rows from the config file when >= 0.
	previewRows int
)

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Show the first payments and the batch total without writing a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreview(cmd, args[0])
	},
}

func runPreview(cmd *cobra.Command, path string) error {
	conv, err := converter.New(appConfig, logger)
	if err != nil {
		return err
	}

	res, err := conv.Prepare(path, previewOpts)
	if err != nil {
		return err
	}

	k := appConfig.PreviewRows
	if previewRows >= 0 {
		k = previewRows
	}

	out := cmd.OutOrStdout()
	printPreview(out, res.Batch, k)
	printSummary(out, res.Batch)
	printFailures(out, res.Batch)
	return nil
}

// printPreview lists the first k records of b.
func printPreview(out io.Writer, b *batch.Batch, k int) {
	if b.Succeeded() == 0 {
		fmt.Fprintln(out, "No valid payments.")
		return
	}

	records := b.Preview(k)
	if len(records) > 0 {
		fmt.Fprintf(out, "%-5s %-30s %-34s %-11s %12s  %s\n", "Row", "Name", "IBAN", "BIC", "Amount", "Description")
	}
	for _, r := range records {
		fmt.Fprintf(out, "%-5d %-30s %-34s %-11s %12s  %s\n",
			r.Row, clip(r.Name, 30), r.IBAN, r.BIC, amount.Format(r.AmountMinor), clip(r.Description, 40))
	}
	if rest := b.Succeeded() - len(records); rest > 0 {
		fmt.Fprintf(out, "... and %d more\n", rest)
	}
}

// printSummary prints the batch counters and total.
func printSummary(out io.Writer, b *batch.Batch) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows attempted:  %d\n", b.Attempted)
	fmt.Fprintf(out, "Payments kept:   %d\n", b.Succeeded())
	fmt.Fprintf(out, "Rows skipped:    %d\n", b.Failed)
	fmt.Fprintf(out, "Total:           EUR %s\n", b.Total())
}

// printFailures lists every skipped row with its stage and reason.
func printFailures(out io.Writer, b *batch.Batch) {
	if len(b.Failures) == 0 {
		return
	}
	fmt.Fprintln(out, "\nSkipped rows:")
	for _, f := range b.Failures {
		fmt.Fprintf(out, "  row %d (%s): %v\n", f.Row, f.Stage, f.Err)
	}
}

// clip shortens s to n runes for table display.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addMappingFlags(previewCmd, &previewOpts)
	addSenderFlags(previewCmd, &previewOpts)
	previewCmd.Flags().IntVar(&previewRows, "rows", -1, "Number of payments to show (default: preview_rows from config)")
}

// =============================================================================
// XLS to SEPA Converter - Suggest Command
// =============================================================================
//
// COMMAND USAGE:
//   xls2sepa suggest payments.xlsx
//
// OUTPUT:
//   File:    payments.xlsx (xlsx, 42 rows)
//   Columns: Empfänger, IBAN, BIC, Betrag, Verwendungszweck
//
//   Suggested mapping:
//     name          Empfänger
//     iban          IBAN
//     ...
//
// The mapping shown includes overrides from the config file and flags, so
// the command doubles as a check before preview or generate.
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/converter"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

var suggestOpts converter.Options

var suggestCmd = &cobra.Command{
	Use:   "suggest FILE",
	Short: "Show the column mapping suggested for a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuggest(cmd, args[0])
	},
}

func runSuggest(cmd *cobra.Command, path string) error {
	conv, err := converter.New(appConfig, logger)
	if err != nil {
		return err
	}

	table, err := conv.Load(path, suggestOpts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:    %s (%s, %d rows)\n", table.Source, table.Format, len(table.Rows))
	fmt.Fprintf(out, "Columns: %s\n\n", strings.Join(table.Headers, ", "))

	m, mapErr := conv.ResolveMapping(table, suggestOpts)

	fmt.Fprintln(out, "Suggested mapping:")
	for _, field := range types.Fields {
		fmt.Fprintf(out, "  %-13s %s\n", field, mappingLine(m, field))
	}

	if mapErr != nil {
		fmt.Fprintf(out, "\nMapping incomplete: %v\n", mapErr)
		return nil
	}
	fmt.Fprintln(out, "\nMapping complete.")
	return nil
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	addMappingFlags(suggestCmd, &suggestOpts)
}

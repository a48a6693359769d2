package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/converter"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// addMappingFlags registers the column override flags shared by every
// command that reads a spreadsheet.
func addMappingFlags(cmd *cobra.Command, opts *converter.Options) {
	f := cmd.Flags()
	f.StringVar(&opts.Sheet, "sheet", "", "Worksheet to read (default: first sheet)")
	f.StringVar(&opts.Mapping.Name, "name-column", "", "Column holding the payee name")
	f.StringVar(&opts.Mapping.IBAN, "iban-column", "", "Column holding the payee IBAN")
	f.StringVar(&opts.Mapping.BIC, "bic-column", "", "Column holding the payee BIC")
	f.StringVar(&opts.Mapping.Amount, "amount-column", "", "Column holding the amount in EUR")
	f.StringVar(&opts.Mapping.Description, "description-column", "", "Column holding the remittance text")
}

// addSenderFlags registers the sender override flags.
func addSenderFlags(cmd *cobra.Command, opts *converter.Options) {
	f := cmd.Flags()
	f.StringVar(&opts.Sender.Name, "sender-name", "", "Name of the paying account holder")
	f.StringVar(&opts.Sender.IBAN, "sender-iban", "", "IBAN of the paying account")
	f.StringVar(&opts.Sender.BIC, "sender-bic", "", "BIC of the paying bank")
	f.StringVar(&opts.Sender.ExecutionDate, "execution-date", "", "Requested execution date, YYYY-MM-DD (default: today)")
}

// mappingLine formats one field of a mapping for display.
func mappingLine(m types.ColumnMapping, field string) string {
	h := m.Header(field)
	if h == "" {
		h = "(unmapped)"
	}
	return h
}

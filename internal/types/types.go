// =============================================================================
// XLS to SEPA Converter - Shared Types
// =============================================================================
//
// This package contains the payment domain types shared by the sheet reader,
// the column mapper, the batch builder and the SEPA exporter. Keeping them here
// avoids import cycles between those packages.
//
// =============================================================================

package types

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// CellKind tags the dynamic type of a spreadsheet cell.
type CellKind int

const (
	// CellEmpty is a blank cell or a column missing from a short row.
	CellEmpty CellKind = iota

	// CellText is a cell holding a string.
	CellText

	// CellNumber is a cell holding a numeric value.
	CellNumber
)

// Cell is a single spreadsheet value: text, number, or absent.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell builds a text cell. Blank text is kept as text; use IsBlank to test it.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell builds a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// EmptyCell returns the absent cell.
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// String renders the cell the way a user would read it in the sheet.
// Numbers use the shortest representation that round-trips.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// IsBlank reports whether the cell is empty or only whitespace.
func (c Cell) IsBlank() bool {
	return strings.TrimSpace(c.String()) == ""
}

// =============================================================================
// ROWS
// =============================================================================

// RawRow is one data row of the source sheet, keyed by column header.
// The header order lives on the owning table. Rows are never mutated by the core.
type RawRow struct {
	// Number is the 1-based spreadsheet row number (the header is row 1).
	Number int

	// Cells maps column header to cell value.
	Cells map[string]Cell
}

// Get returns the cell under header and whether the column exists in this row.
func (r RawRow) Get(header string) (Cell, bool) {
	c, ok := r.Cells[header]
	return c, ok
}

// =============================================================================
// COLUMN MAPPING
// =============================================================================

// Semantic field names recognized in a ColumnMapping.
const (
	FieldName        = "name"
	FieldIBAN        = "iban"
	FieldBIC         = "bic"
	FieldAmount      = "amount"
	FieldDescription = "description"
)

// Fields lists the five semantic fields in canonical order.
var Fields = []string{FieldName, FieldIBAN, FieldBIC, FieldAmount, FieldDescription}

// RequiredFields lists the fields that must map to an existing header.
var RequiredFields = []string{FieldName, FieldIBAN, FieldAmount, FieldDescription}

// ColumnMapping assigns each semantic field to a column header.
// An empty string means the field is unmapped.
type ColumnMapping struct {
	Name        string `yaml:"name" json:"name"`
	IBAN        string `yaml:"iban" json:"iban"`
	BIC         string `yaml:"bic" json:"bic"`
	Amount      string `yaml:"amount" json:"amount"`
	Description string `yaml:"description" json:"description"`
}

// Header returns the header assigned to field, or "" for unknown fields.
func (m ColumnMapping) Header(field string) string {
	switch field {
	case FieldName:
		return m.Name
	case FieldIBAN:
		return m.IBAN
	case FieldBIC:
		return m.BIC
	case FieldAmount:
		return m.Amount
	case FieldDescription:
		return m.Description
	}
	return ""
}

// Set assigns header to field. Unknown fields are ignored.
func (m *ColumnMapping) Set(field, header string) {
	switch field {
	case FieldName:
		m.Name = header
	case FieldIBAN:
		m.IBAN = header
	case FieldBIC:
		m.BIC = header
	case FieldAmount:
		m.Amount = header
	case FieldDescription:
		m.Description = header
	}
}

// =============================================================================
// SENDER AND PAYMENTS
// =============================================================================

// SenderProfile is the single payer of a batch.
type SenderProfile struct {
	Name          string
	IBAN          string
	BIC           string
	ExecutionDate time.Time
}

// PaymentRecord is one validated outgoing transfer.
type PaymentRecord struct {
	// Row is the spreadsheet row the record was built from.
	Row int

	Name          string
	IBAN          string
	BIC           string
	AmountMinor   int64
	Description   string
	ExecutionDate time.Time
}

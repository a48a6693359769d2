// =============================================================================
// XLS to SEPA Converter - Sheet Reader
// =============================================================================
//
// This module reads a payment spreadsheet into a header list and typed rows.
//
// SUPPORTED FORMATS:
//   .xlsx / .xlsm  Office Open XML workbooks (excelize)
//   .xls           legacy BIFF workbooks (xlsReader)
//   .csv / .txt    delimited text in UTF-8 or a legacy single-byte encoding
//
//   Unknown extensions are sniffed from the leading bytes.
//
// TABLE SHAPE:
//   - Row 1 is the header row. Blank headers become "Unnamed: N" (N is the
//     0-based column index) and repeated headers get ".1", ".2", ...
//   - Rows with no non-blank cell are skipped.
//   - Every kept row holds a cell for every header; short rows are padded
//     with empty cells.
//
// =============================================================================

package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/config"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// Format identifies the container of a source file.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	// ErrEmpty is returned for a sheet without a header row.
	ErrEmpty = errors.New("sheet has no header row")

	// ErrSheetNotFound is returned when the requested worksheet is missing.
	ErrSheetNotFound = errors.New("worksheet not found")
)

// Options controls how a file is read.
type Options struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string

	// CSV applies to delimited text input only.
	CSV config.CSVSettings
}

// Table is the materialized content of one worksheet.
type Table struct {
	// Source is the file name the table was read from.
	Source string

	Format Format

	// Headers are the column names in sheet order, unique and non-empty.
	Headers []string

	// Rows are the non-empty data rows in sheet order.
	Rows []types.RawRow
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// Read loads the file at path.
func Read(path string, opts Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return ReadBytes(filepath.Base(path), data, opts)
}

// ReadBytes parses data, using name only to pick the format.
func ReadBytes(name string, data []byte, opts Options) (*Table, error) {
	format := DetectFormat(name, data)

	var (
		records [][]types.Cell
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data, opts.Sheet)
	case FormatXLS:
		records, err = readXLS(data, opts.Sheet)
	default:
		records, err = readCSV(data, opts.CSV)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s file %s: %w", format, name, err)
	}

	table, err := buildTable(records)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	table.Source = name
	table.Format = format
	return table, nil
}

var (
	zipMagic = []byte("PK\x03\x04")
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks a reader from the file extension, then from magic bytes.
func DetectFormat(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv", ".txt", ".tsv":
		return FormatCSV
	}

	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, cfbMagic):
		return FormatXLS
	}
	return FormatCSV
}

// =============================================================================
// TABLE ASSEMBLY
// =============================================================================

// buildTable turns raw records (header first) into a Table.
func buildTable(records [][]types.Cell) (*Table, error) {
	start := -1
	for i, rec := range records {
		if !isRowEmpty(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmpty
	}

	width := 0
	for _, rec := range records[start:] {
		if len(rec) > width {
			width = len(rec)
		}
	}

	raw := make([]string, width)
	for i, c := range records[start] {
		raw[i] = c.String()
	}
	headers := cleanHeaders(raw)

	table := &Table{Headers: headers}
	for i := start + 1; i < len(records); i++ {
		rec := records[i]
		if isRowEmpty(rec) {
			continue
		}

		cells := make(map[string]types.Cell, width)
		for col, header := range headers {
			if col < len(rec) {
				cells[header] = rec[col]
			} else {
				cells[header] = types.EmptyCell()
			}
		}
		table.Rows = append(table.Rows, types.RawRow{Number: i + 1, Cells: cells})
	}
	return table, nil
}

// cleanHeaders trims headers, names blank ones and makes them unique.
func cleanHeaders(raw []string) []string {
	cleaned := make([]string, len(raw))
	used := make(map[string]bool, len(raw))

	for i, header := range raw {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Unnamed: %d", i)
		}

		name := header
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", header, n)
		}
		used[name] = true
		cleaned[i] = name
	}

	return cleaned
}

// isRowEmpty checks if a row contains only blank cells.
func isRowEmpty(row []types.Cell) bool {
	for _, cell := range row {
		if !cell.IsBlank() {
			return false
		}
	}
	return true
}

// textCell maps blank text to the empty cell.
func textCell(s string) types.Cell {
	if strings.TrimSpace(s) == "" {
		return types.EmptyCell()
	}
	return types.TextCell(s)
}

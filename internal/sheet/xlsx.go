package sheet

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// readXLSX reads one worksheet with raw cell values. Cells stored as numbers
// become numeric cells so that display formats (thousands grouping, currency)
// never leak into amount parsing.
func readXLSX(data []byte, sheet string) ([][]types.Cell, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	records := make([][]types.Cell, len(rows))
	for r, row := range rows {
		rec := make([]types.Cell, len(row))
		for c, value := range row {
			rec[c] = xlsxCell(f, sheet, r, c, value)
		}
		records[r] = rec
	}
	return records, nil
}

func xlsxCell(f *excelize.File, sheet string, r, c int, value string) types.Cell {
	cell := textCell(value)
	if cell.Kind == types.CellEmpty {
		return cell
	}

	axis, err := excelize.CoordinatesToCellName(c+1, r+1)
	if err != nil {
		return cell
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return cell
	}

	// Numbers are stored without a type attribute or with t="n".
	if typ == excelize.CellTypeUnset || typ == excelize.CellTypeNumber {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return types.NumberCell(n)
		}
	}
	return cell
}

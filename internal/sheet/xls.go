package sheet

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// readXLS reads one worksheet of a BIFF workbook. Cells are taken in their
// text form; the amount normalizer handles both "1234.5" and "1.234,50".
func readXLS(data []byte, sheet string) ([][]types.Cell, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	n := len(workbook.GetSheets())
	if n == 0 {
		return nil, ErrEmpty
	}

	index := -1
	for i := 0; i < n; i++ {
		s, err := workbook.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read worksheet %d: %w", i, err)
		}
		if sheet == "" || biffString(s.GetName()) == sheet {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	ws, err := workbook.GetSheet(index)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %d: %w", index, err)
	}

	var records [][]types.Cell
	for _, row := range ws.GetRows() {
		var rec []types.Cell
		if row != nil {
			for _, col := range row.GetCols() {
				if col == nil {
					rec = append(rec, types.EmptyCell())
					continue
				}
				rec = append(rec, textCell(biffString(col.GetString())))
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// biffString decodes compressed BIFF8 strings. xlsReader returns their raw
// bytes, which are ISO-8859-1 whenever a character lies above 0x7F.
func biffString(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return s
	}
	return out
}

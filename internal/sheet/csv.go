package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/config"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// legacyEncodings covers the encodings banking exports commonly use.
var legacyEncodings = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp850":        charmap.CodePage850,
	"ibm850":       charmap.CodePage850,
}

// lookupEncoding resolves an encoding name. UTF-8 input is decoded with BOM
// removal.
func lookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM, nil
	}
	if enc, ok := legacyEncodings[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// readCSV decodes and splits delimited text. Every cell is text.
func readCSV(data []byte, settings config.CSVSettings) ([][]types.Cell, error) {
	enc, err := lookupEncoding(settings.Encoding)
	if err != nil {
		return nil, err
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", settings.Encoding, err)
	}

	comma, err := config.ParseDelimiter(settings.Delimiter)
	if err != nil {
		return nil, err
	}
	if comma == 0 {
		comma = sniffDelimiter(decoded)
	}

	reader := csv.NewReader(bufio.NewReader(bytes.NewReader(decoded)))
	configureReader(reader, comma)

	var records [][]types.Cell
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		// Pad so that a record's index equals its starting line minus one.
		line, _ := reader.FieldPos(0)
		for len(records) < line-1 {
			records = append(records, nil)
		}

		rec := make([]types.Cell, len(fields))
		for i, f := range fields {
			rec[i] = textCell(f)
		}
		records = append(records, rec)
	}
	return records, nil
}

// configureReader configures the CSV reader for loosely formatted exports.
func configureReader(reader *csv.Reader, comma rune) {
	reader.Comma = comma

	// Allow variable number of fields per row.
	reader.FieldsPerRecord = -1

	// Allow lazy quotes (quotes that don't follow strict CSV rules).
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
}

// sniffDelimiter picks the most frequent candidate separator in the first line.
// Comma wins ties and empty input.
func sniffDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}

	best, bestCount := ',', bytes.Count(first, []byte{','})
	for _, c := range []rune{';', '\t', '|'} {
		if n := strings.Count(string(first), string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// =============================================================================
// XLS to SEPA Converter - Amount Normalizer
// =============================================================================
//
// This module turns free-form amount text from a spreadsheet cell into an
// exact count of euro cents.
//
// SEPARATOR DISAMBIGUATION:
//   1. Comma and period both present: the earlier one is the thousands
//      separator and is removed, the later one is the decimal separator.
//        "1.234,56" -> "1234.56"      "1,234.56" -> "1234.56"
//   2. Only commas: if the part after the last comma has at most two
//      characters the comma is decimal, otherwise it groups thousands.
//        "123,45" -> "123.45"         "1,234" -> "1234"
//   3. Only a period, or no separator: left as written.
//        "12.34" -> "12.34"           "1.234" -> "1.234" (one point two...)
//
// Everything that is not a digit or a period is then dropped (currency
// symbols, spaces, letters, signs) and the rest is parsed as a decimal number.
// Cents are rounded half-to-even.
//
// =============================================================================

package amount

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("invalid amount format")

// FormatError reports amount text that could not be parsed.
type FormatError struct {
	// Raw is the original input.
	Raw string

	// Cleaned is the text left after separator handling and stripping.
	Cleaned string

	// Reason is a short description of what went wrong.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid amount %q (cleaned %q): %s", e.Raw, e.Cleaned, e.Reason)
}

// Is makes errors.Is(err, ErrFormat) true for FormatError values.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

var (
	hundred  = decimal.NewFromInt(100)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
)

// Normalize parses raw into minor units (cents).
func Normalize(raw string) (int64, error) {
	cleaned := Clean(raw)

	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, &FormatError{Raw: raw, Cleaned: cleaned, Reason: "no digits"}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, &FormatError{Raw: raw, Cleaned: cleaned, Reason: "not a number"}
	}

	minor := d.Mul(hundred).RoundBank(0)
	if minor.GreaterThan(maxMinor) {
		return 0, &FormatError{Raw: raw, Cleaned: cleaned, Reason: "out of range"}
	}

	return minor.IntPart(), nil
}

// NormalizeCell parses a spreadsheet cell into minor units.
// Numeric cells go through the same text path as typed-in values.
func NormalizeCell(c types.Cell) (int64, error) {
	if c.Kind == types.CellEmpty {
		return 0, &FormatError{Reason: "empty cell"}
	}
	return Normalize(c.String())
}

// Clean applies separator disambiguation and strips everything that is not
// a digit or a period. It does not validate the result.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)

	comma := strings.Index(s, ",")
	period := strings.Index(s, ".")

	switch {
	case comma >= 0 && period >= 0:
		if period < comma {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		tail := s[strings.LastIndex(s, ",")+1:]
		if utf8.RuneCountInString(tail) <= 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}

// Format renders minor units as a plain euro string, e.g. 123456 -> "1234.56".
func Format(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

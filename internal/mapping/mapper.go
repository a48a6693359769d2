// =============================================================================
// XLS to SEPA Converter - Column Mapper
// =============================================================================
//
// This module guesses which spreadsheet column holds which payment field.
//
// HEURISTIC:
//   Each semantic field has an ordered keyword list. For every field the
//   headers are scanned left to right and the first header whose folded
//   text contains any keyword is taken. Fields are matched independently,
//   so one column can be suggested for two fields; the user fixes that by
//   overriding the suggestion.
//
// Header folding: Unicode NFC, then lower case. "Empfänger" and
// "EMPFÄNGER" both match "empfänger".
//
// =============================================================================

package mapping

import (
	"fmt"
	"strings"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// =============================================================================
// KEYWORD TABLE
// =============================================================================

// KeywordTable maps each semantic field to its ordered keyword list.
type KeywordTable map[string][]string

// DefaultKeywords holds the built-in English and German keywords.
var DefaultKeywords = KeywordTable{
	types.FieldName:        {"name", "recipient", "payee", "empfänger", "begünstigter"},
	types.FieldIBAN:        {"iban"},
	types.FieldBIC:         {"bic", "swift"},
	types.FieldAmount:      {"amount", "value", "betrag", "summe"},
	types.FieldDescription: {"description", "purpose", "verwendungszweck", "zweck"},
}

// NewKeywordTable returns DefaultKeywords with extra keywords appended per
// field. Unknown fields in extra are ignored.
func NewKeywordTable(extra map[string][]string) KeywordTable {
	table := make(KeywordTable, len(DefaultKeywords))
	for _, field := range types.Fields {
		kws := append([]string(nil), DefaultKeywords[field]...)
		for _, kw := range extra[field] {
			if kw = fold(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		table[field] = kws
	}
	return table
}

// fold normalizes text for keyword matching.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// =============================================================================
// SUGGESTION
// =============================================================================

// Mapper suggests column mappings from headers.
type Mapper struct {
	keywords KeywordTable
}

// NewMapper creates a Mapper. A nil table uses DefaultKeywords.
func NewMapper(keywords KeywordTable) *Mapper {
	if keywords == nil {
		keywords = DefaultKeywords
	}
	return &Mapper{keywords: keywords}
}

// Suggest returns the heuristic mapping for columns. Fields with no matching
// header are left empty; no error is raised here.
func (m *Mapper) Suggest(columns []string) types.ColumnMapping {
	folded := make([]string, len(columns))
	for i, c := range columns {
		folded[i] = fold(c)
	}

	var out types.ColumnMapping
	for _, field := range types.Fields {
		if header, ok := m.match(field, columns, folded); ok {
			out.Set(field, header)
		}
	}
	return out
}

func (m *Mapper) match(field string, columns, folded []string) (string, bool) {
	kws := m.keywords[field]
	for i, col := range folded {
		for _, kw := range kws {
			if kw != "" && strings.Contains(col, fold(kw)) {
				return columns[i], true
			}
		}
	}
	return "", false
}

// Suggest applies DefaultKeywords to columns.
func Suggest(columns []string) types.ColumnMapping {
	return NewMapper(nil).Suggest(columns)
}

// Resolve lays user overrides over a suggestion. Non-empty override fields win.
func Resolve(suggested, overrides types.ColumnMapping) types.ColumnMapping {
	out := suggested
	for _, field := range types.Fields {
		if h := overrides.Header(field); strings.TrimSpace(h) != "" {
			out.Set(field, h)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// MappingError reports a required field that does not point at a real column.
type MappingError struct {
	// Field is the semantic field name.
	Field string

	// Header is the configured header, empty when the field is unmapped.
	Header string

	// Suggestion is the closest existing header, if any.
	Suggestion string
}

func (e *MappingError) Error() string {
	var msg string
	if e.Header == "" {
		msg = fmt.Sprintf("required field %q is not mapped to a column", e.Field)
	} else {
		msg = fmt.Sprintf("field %q is mapped to unknown column %q", e.Field, e.Header)
	}
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// Validate checks that every required field maps to one of headers. The BIC
// mapping is optional and may name a column the sheet lacks; rows then carry
// no explicit BIC. The first problem found is returned.
func Validate(m types.ColumnMapping, headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	var cm *closestmatch.ClosestMatch
	closest := func(s string) string {
		if s == "" || len(headers) == 0 {
			return ""
		}
		if cm == nil {
			cm = closestmatch.New(headers, []int{2, 3})
		}
		return cm.Closest(s)
	}

	for _, field := range types.RequiredFields {
		h := m.Header(field)
		if h == "" {
			return &MappingError{Field: field}
		}
		if !present[h] {
			return &MappingError{Field: field, Header: h, Suggestion: closest(h)}
		}
	}
	return nil
}

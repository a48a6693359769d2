package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

var today = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func record() types.PaymentRecord {
	return types.PaymentRecord{
		Row:           2,
		Name:          "Anna Muster",
		IBAN:          "DE89370400440532013000",
		BIC:           "COBADEFFXXX",
		AmountMinor:   123456,
		Description:   "Invoice 1",
		ExecutionDate: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	}
}

func newValidator() *Validator {
	return NewValidatorWithOptions(ValidationOptions{Today: today})
}

func rules(errs []*ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Rule)
	}
	return out
}

func TestValidateRecord_Clean(t *testing.T) {
	rec := record()
	assert.Empty(t, newValidator().ValidateRecord(&rec))
}

func TestValidateRecord_Findings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.PaymentRecord)
		rule   string
		sev    string
	}{
		{"umlaut", func(r *types.PaymentRecord) { r.Name = "Jörg Müller" }, "charset", SeverityWarning},
		{"cyrillic name", func(r *types.PaymentRecord) { r.Name = "Иван Петров" }, "empty_after_cleaning", SeverityError},
		{"long name", func(r *types.PaymentRecord) { r.Name = strings.Repeat("a", 71) }, "max_length", SeverityWarning},
		{"long remittance", func(r *types.PaymentRecord) { r.Description = strings.Repeat("x", 141) }, "max_length", SeverityWarning},
		{"no bic", func(r *types.PaymentRecord) { r.BIC = "" }, "iban_only", SeverityWarning},
		{"zero", func(r *types.PaymentRecord) { r.AmountMinor = 0 }, "positive", SeverityError},
		{"too large", func(r *types.PaymentRecord) { r.AmountMinor = MaxAmountMinor + 1 }, "max_amount", SeverityError},
		{"past", func(r *types.PaymentRecord) { r.ExecutionDate = today.AddDate(0, 0, -1) }, "past_date", SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record()
			tt.mutate(&rec)

			errs := newValidator().ValidateRecord(&rec)
			require.Len(t, errs, 1, rules(errs))
			assert.Equal(t, tt.rule, errs[0].Rule)
			assert.Equal(t, tt.sev, errs[0].Severity)
			assert.Equal(t, 2, errs[0].RowNumber)
		})
	}
}

func TestValidateRecord_TodayIsNotPast(t *testing.T) {
	rec := record()
	rec.ExecutionDate = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, newValidator().ValidateRecord(&rec))
}

func TestValidateAll(t *testing.T) {
	ok := record()
	warn := record()
	warn.BIC = ""
	bad := record()
	bad.Row = 9
	bad.AmountMinor = -1

	result := newValidator().ValidateAll([]types.PaymentRecord{ok, warn, bad})

	assert.False(t, result.IsValid)
	assert.Equal(t, 3, result.RecordsValidated)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, 1, result.WarningCount)
	require.Error(t, result.Err())
	assert.Contains(t, result.Err().Error(), "[ERROR] Row 9")
}

func TestValidateAll_WarningsOnly(t *testing.T) {
	warn := record()
	warn.BIC = ""

	result := newValidator().ValidateAll([]types.PaymentRecord{warn})
	assert.True(t, result.IsValid)
	assert.NoError(t, result.Err())

	strict := NewValidatorWithOptions(ValidationOptions{Today: today, TreatWarningsAsErrors: true})
	assert.False(t, strict.ValidateAll([]types.PaymentRecord{warn}).IsValid)
}

func TestCleanText(t *testing.T) {
	tests := map[string]string{
		"Anna Muster":         "Anna Muster",
		"Jörg Müller":         "Jorg Muller",
		"Straße":              "Strasse",
		"Smith & Sons":        "Smith + Sons",
		"Crème brûlée":        "Creme brulee",
		"Invoice #42; €10":    "Invoice  42   10",
		"  padded  ":          "padded",
		"Ref: 2026/10-A (1).": "Ref: 2026/10-A (1).",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanText(in), in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "ab", Truncate("ab cd", 3))
}

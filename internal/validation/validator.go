// =============================================================================
// XLS to SEPA Converter - Validation Engine
// =============================================================================
//
// This module checks payment records against the SEPA credit-transfer field
// rules before they are serialized.
//
// RULES:
//   Field        Rule                 Severity  Meaning
//   -----------  -------------------- --------- ----------------------------------
//   name         max_length           warning   longer than 70, will be truncated
//   name         charset              warning   characters outside the SEPA set
//   name         empty_after_cleaning error     no SEPA characters at all
//   description  max_length           warning   longer than 140, will be truncated
//   description  charset              warning   characters outside the SEPA set
//   bic          iban_only            warning   no BIC known, IBAN-only transfer
//   amount       max_amount           error     above 999,999,999.99 EUR
//   amount       positive             error     zero or negative
//   date         past_date            warning   execution date before today
//
// ERROR HANDLING:
//   - Findings are collected, never returned as the first failure.
//   - Each finding carries the spreadsheet row number it came from.
//   - Warnings can be promoted to errors with TreatWarningsAsErrors.
//
// SEPA CHARACTER SET:
//   a-z A-Z 0-9 / - ? : ( ) . , ' + and space. Text is reduced to it by
//   stripping accents (Unicode NFD, marks removed) and replacing whatever
//   is left over.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/amount"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// Field length limits of pain.001.001.03.
const (
	MaxNameLength       = 70
	MaxRemittanceLength = 140

	// MaxAmountMinor is 999,999,999.99 EUR in cents.
	MaxAmountMinor int64 = 99999999999
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity indicates the severity of the finding.
	// "error" = the record cannot be exported
	// "warning" = the record is exported, possibly altered
	Severity string

	// Field is the semantic field that was checked.
	Field string

	// Value is the actual value that was checked.
	Value string

	// Rule is the validation rule that was violated.
	Rule string

	// Message is a human-readable message.
	Message string

	// RowNumber is the spreadsheet row number, 0 for sender-level findings.
	RowNumber int
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Row %d, Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.RowNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings (including warnings) in row order.
	Errors []*ValidationError

	// ErrorCount is the number of fatal errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// RecordsValidated is the total number of records checked.
	RecordsValidated int
}

// Err returns the first fatal finding, or nil.
func (r *ValidationResult) Err() error {
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			return e
		}
	}
	return nil
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool

	// Today is the reference date for past_date. Zero means time.Now().
	Today time.Time
}

// Validator checks payment records.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a new Validator with default options.
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks records with default options.
func Validate(records []types.PaymentRecord) *ValidationResult {
	return NewValidator().ValidateAll(records)
}

// ValidateAll checks every record and returns a detailed result.
func (v *Validator) ValidateAll(records []types.PaymentRecord) *ValidationResult {
	result := &ValidationResult{
		IsValid:          true,
		Errors:           make([]*ValidationError, 0),
		RecordsValidated: len(records),
	}

	for i := range records {
		for _, err := range v.ValidateRecord(&records[i]) {
			result.Errors = append(result.Errors, err)

			if err.Severity == SeverityError {
				result.ErrorCount++
				result.IsValid = false
			} else {
				result.WarningCount++
				if v.options.TreatWarningsAsErrors {
					result.IsValid = false
				}
			}
		}
	}

	return result
}

// ValidateRecord checks a single record.
func (v *Validator) ValidateRecord(rec *types.PaymentRecord) []*ValidationError {
	var errs []*ValidationError

	add := func(severity, field, value, rule, msg string) {
		errs = append(errs, &ValidationError{
			Severity:  severity,
			Field:     field,
			Value:     value,
			Rule:      rule,
			Message:   msg,
			RowNumber: rec.Row,
		})
	}

	// =========================================================================
	// TEXT FIELDS
	// =========================================================================

	textFields := []struct {
		field string
		value string
		max   int
	}{
		{types.FieldName, rec.Name, MaxNameLength},
		{types.FieldDescription, rec.Description, MaxRemittanceLength},
	}
	for _, tf := range textFields {
		cleaned := CleanText(tf.value)
		if cleaned == "" && tf.field == types.FieldName {
			add(SeverityError, tf.field, tf.value, "empty_after_cleaning",
				"Value has no characters from the SEPA set")
			continue
		}
		if cleaned != strings.TrimSpace(tf.value) {
			add(SeverityWarning, tf.field, tf.value, "charset",
				fmt.Sprintf("Characters outside the SEPA set will be replaced: '%s'", cleaned))
		}
		if n := len(cleaned); n > tf.max {
			add(SeverityWarning, tf.field, tf.value, "max_length",
				fmt.Sprintf("Value exceeds maximum length of %d characters (actual: %d) and will be truncated", tf.max, n))
		}
	}

	// =========================================================================
	// BANK IDENTIFIERS
	// =========================================================================

	if rec.BIC == "" {
		add(SeverityWarning, types.FieldBIC, "", "iban_only",
			"No BIC could be determined; the transfer is sent IBAN-only")
	}

	// =========================================================================
	// AMOUNT
	// =========================================================================

	switch {
	case rec.AmountMinor <= 0:
		add(SeverityError, types.FieldAmount, amount.Format(rec.AmountMinor), "positive",
			"Amount must be greater than zero")
	case rec.AmountMinor > MaxAmountMinor:
		add(SeverityError, types.FieldAmount, amount.Format(rec.AmountMinor), "max_amount",
			fmt.Sprintf("Amount exceeds the SEPA maximum of %s EUR", amount.Format(MaxAmountMinor)))
	}

	// =========================================================================
	// EXECUTION DATE
	// =========================================================================

	if !rec.ExecutionDate.IsZero() && rec.ExecutionDate.Before(v.today(rec.ExecutionDate.Location())) {
		add(SeverityWarning, "date", rec.ExecutionDate.Format("2006-01-02"), "past_date",
			"Execution date is in the past; the bank will execute on the next business day")
	}

	return errs
}

func (v *Validator) today(loc *time.Location) time.Time {
	now := v.options.Today
	if now.IsZero() {
		now = time.Now()
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// =============================================================================
// SEPA TEXT
// =============================================================================

// stripMarks decomposes text and drops combining marks: "Müller" -> "Muller".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var replacements = strings.NewReplacer(
	"ß", "ss",
	"&", "+",
	"Æ", "AE", "æ", "ae",
	"Ø", "O", "ø", "o",
	"Œ", "OE", "œ", "oe",
)

// IsSEPAChar reports whether r belongs to the SEPA Latin character set.
func IsSEPAChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("/-?:().,'+ ", r)
}

// CleanText reduces s to the SEPA character set and trims it.
// Unmappable characters become spaces.
func CleanText(s string) string {
	s = replacements.Replace(s)
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	s = strings.Map(func(r rune) rune {
		if IsSEPAChar(r) {
			return r
		}
		return ' '
	}, s)
	return strings.TrimSpace(s)
}

// Truncate cuts cleaned SEPA text to max characters.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

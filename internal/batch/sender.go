package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/validation"
)

// DateLayout is the accepted execution date format.
const DateLayout = "2006-01-02"

// SenderError reports a sender field that failed validation. It aborts the
// whole generation before any row is read.
type SenderError struct {
	// Field is "name", "iban" or "bic".
	Field string
	Err   error
}

func (e *SenderError) Error() string {
	return fmt.Sprintf("invalid sender %s: %v", e.Field, e.Err)
}

func (e *SenderError) Unwrap() error { return e.Err }

// IdentifierValidator checks sender bank identifiers.
type IdentifierValidator interface {
	ValidateIBAN(raw string) (string, error)
	ValidateBIC(raw string) (string, error)
}

// NewSenderProfile validates user-supplied sender fields. The IBAN and BIC are
// stored in compact upper-case form. See ParseExecutionDate for date handling.
func NewSenderProfile(v IdentifierValidator, name, iban, bic, date string, now time.Time) (types.SenderProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.SenderProfile{}, &SenderError{Field: types.FieldName, Err: errors.New("must not be empty")}
	}
	if validation.CleanText(name) == "" {
		return types.SenderProfile{}, &SenderError{Field: types.FieldName, Err: errors.New("has no characters from the SEPA set")}
	}

	canonIBAN, err := v.ValidateIBAN(iban)
	if err != nil {
		return types.SenderProfile{}, &SenderError{Field: types.FieldIBAN, Err: err}
	}

	canonBIC, err := v.ValidateBIC(bic)
	if err != nil {
		return types.SenderProfile{}, &SenderError{Field: types.FieldBIC, Err: err}
	}

	return types.SenderProfile{
		Name:          name,
		IBAN:          canonIBAN,
		BIC:           canonBIC,
		ExecutionDate: ParseExecutionDate(date, now),
	}, nil
}

// ParseExecutionDate parses a YYYY-MM-DD date. Blank or malformed input
// yields the calendar date of now.
func ParseExecutionDate(s string, now time.Time) time.Time {
	if d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), now.Location()); err == nil {
		return d
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

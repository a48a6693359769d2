// =============================================================================
// XLS to SEPA Converter - Bank Identifier Resolver
// =============================================================================
//
// This module validates IBANs and works out a usable BIC for each payee.
//
// BIC RESOLUTION ORDER:
//   1. A BIC typed into the sheet wins when it is structurally valid. It is
//      returned as given (normalized to upper case, no padding).
//   2. Otherwise the registry is asked for the BIC of the IBAN's
//      country + bank code.
//   3. A registry BIC with only 8 characters gets the branch padding "XXX".
//      If the padded form does not validate, the 8-character form is kept.
//   4. No candidate at all yields "" (IBAN-only transfer).
//
// Structural IBAN/BIC checks are delegated to github.com/jbub/banking.
//
// =============================================================================

package bankid

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jbub/banking/iban"
	"github.com/jbub/banking/swift"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidIBAN is matched by every InvalidIBANError.
	ErrInvalidIBAN = errors.New("invalid IBAN")

	// ErrInvalidBIC is matched by every InvalidBICError.
	ErrInvalidBIC = errors.New("invalid BIC")
)

// InvalidIBANError reports an IBAN that failed structural or checksum validation.
type InvalidIBANError struct {
	Raw string
	Err error
}

func (e *InvalidIBANError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid IBAN %q", e.Raw)
	}
	return fmt.Sprintf("invalid IBAN %q: %v", e.Raw, e.Err)
}

func (e *InvalidIBANError) Unwrap() error { return e.Err }

func (e *InvalidIBANError) Is(target error) bool { return target == ErrInvalidIBAN }

// InvalidBICError reports a BIC that failed structural validation.
type InvalidBICError struct {
	Raw string
	Err error
}

func (e *InvalidBICError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid BIC %q", e.Raw)
	}
	return fmt.Sprintf("invalid BIC %q: %v", e.Raw, e.Err)
}

func (e *InvalidBICError) Unwrap() error { return e.Err }

func (e *InvalidBICError) Is(target error) bool { return target == ErrInvalidBIC }

// =============================================================================
// RESOLVER
// =============================================================================

// branchPadding is appended to 8-character BICs from the registry.
const branchPadding = "XXX"

// Resolver validates IBANs and resolves BICs. It holds no mutable state and
// is safe for concurrent use when its Registry is.
type Resolver struct {
	registry Registry
}

// NewResolver creates a Resolver backed by reg. A nil registry disables lookups.
func NewResolver(reg Registry) *Resolver {
	if reg == nil {
		reg = emptyRegistry{}
	}
	return &Resolver{registry: reg}
}

// Compact strips all whitespace and upper-cases an identifier.
func Compact(raw string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw))
}

// ValidateIBAN checks raw and returns its compact canonical form.
func (r *Resolver) ValidateIBAN(raw string) (string, error) {
	code := Compact(raw)
	if code == "" {
		return "", &InvalidIBANError{Raw: raw, Err: errors.New("empty")}
	}
	if err := iban.Validate(code); err != nil {
		return "", &InvalidIBANError{Raw: raw, Err: err}
	}
	return code, nil
}

// ValidateBIC checks raw and returns its compact upper-case form.
func (r *Resolver) ValidateBIC(raw string) (string, error) {
	code := Compact(raw)
	if code == "" {
		return "", &InvalidBICError{Raw: raw, Err: errors.New("empty")}
	}
	if err := swift.Validate(code); err != nil {
		return "", &InvalidBICError{Raw: raw, Err: err}
	}
	return code, nil
}

// LookupBIC asks the registry for the BIC registered for the bank of a
// validated IBAN. The returned BIC is validated but not padded.
func (r *Resolver) LookupBIC(validIBAN string) (string, bool) {
	code, err := iban.Parse(Compact(validIBAN))
	if err != nil {
		return "", false
	}

	bic, ok := r.registry.LookupBIC(code.CountryCode(), code.BankCode())
	if !ok {
		return "", false
	}

	bic, err = r.ValidateBIC(bic)
	if err != nil {
		return "", false
	}
	return bic, true
}

// ResolveBIC picks the BIC for a payment to validIBAN. It never fails;
// "" means no BIC could be determined.
func (r *Resolver) ResolveBIC(validIBAN, provided string) string {
	if strings.TrimSpace(provided) != "" {
		if bic, err := r.ValidateBIC(provided); err == nil {
			return bic
		}
	}

	bic, ok := r.LookupBIC(validIBAN)
	if !ok {
		return ""
	}
	return padBranch(bic)
}

// padBranch adds the primary-office branch code to an 8-character BIC,
// keeping the short form if the padded one does not validate.
func padBranch(bic string) string {
	if len(bic) != 8 {
		return bic
	}
	padded := bic + branchPadding
	if err := swift.Validate(padded); err != nil {
		return bic
	}
	return padded
}

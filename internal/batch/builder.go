// =============================================================================
// XLS to SEPA Converter - Payment Batch Builder
// =============================================================================
//
// This module turns mapped spreadsheet rows into a batch of payment records.
//
// ROW PIPELINE:
//   extract -> validate IBAN -> resolve BIC -> normalize amount -> record
//
//   Any failing step ends the row as a RowFailure tagged with the stage.
//   BIC resolution never fails; an undeterminable BIC is left empty.
//
// BEST-EFFORT BATCH:
//   A failed row is dropped and processing continues. The batch keeps the
//   failure list so callers can report which rows were skipped and why.
//
// The builder holds no state between calls. Building the same rows twice
// yields identical batches.
//
// =============================================================================

package batch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/amount"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/validation"
)

// =============================================================================
// ROW RESULTS
// =============================================================================

// Stage names the pipeline step at which a row failed.
type Stage string

const (
	StageExtract Stage = "extract"
	StageIBAN    Stage = "iban"
	StageAmount  Stage = "amount"
)

// RowFailure records why a row was dropped.
type RowFailure struct {
	// Row is the 1-based spreadsheet row number.
	Row   int
	Stage Stage
	Err   error
}

func (f RowFailure) Error() string {
	return fmt.Sprintf("row %d: %s: %v", f.Row, f.Stage, f.Err)
}

func (f RowFailure) Unwrap() error { return f.Err }

// RowResult is the outcome of processing one row: exactly one of Record and
// Failure is set.
type RowResult struct {
	Record  *types.PaymentRecord
	Failure *RowFailure
}

// OK reports whether the row produced a record.
func (r RowResult) OK() bool { return r.Record != nil }

// =============================================================================
// BATCH
// =============================================================================

// Batch is the aggregate of one build run. TotalMinor always equals the sum
// of AmountMinor over Records, and Records follow input row order.
type Batch struct {
	Records    []types.PaymentRecord
	TotalMinor int64
	Attempted  int
	Failed     int
	Failures   []RowFailure
}

// Succeeded returns the number of rows that became records.
func (b *Batch) Succeeded() int { return len(b.Records) }

// Total renders TotalMinor as a euro string.
func (b *Batch) Total() string { return amount.Format(b.TotalMinor) }

// Preview returns a copy of the first k records. The batch is not modified.
func (b *Batch) Preview(k int) []types.PaymentRecord {
	if k < 0 {
		k = 0
	}
	if k > len(b.Records) {
		k = len(b.Records)
	}
	out := make([]types.PaymentRecord, k)
	copy(out, b.Records[:k])
	return out
}

func (b *Batch) add(res RowResult) {
	b.Attempted++
	if res.OK() {
		b.Records = append(b.Records, *res.Record)
		b.TotalMinor += res.Record.AmountMinor
		return
	}
	b.Failed++
	b.Failures = append(b.Failures, *res.Failure)
}

// =============================================================================
// BUILDER
// =============================================================================

// BankIdentifiers is the banking capability the builder consumes.
type BankIdentifiers interface {
	ValidateIBAN(raw string) (string, error)
	ResolveBIC(validIBAN, provided string) string
}

// Builder assembles batches. It is safe for concurrent use when its
// BankIdentifiers is.
type Builder struct {
	banks BankIdentifiers
	log   logrus.FieldLogger
}

// NewBuilder creates a Builder. A nil logger discards output.
func NewBuilder(banks BankIdentifiers, log logrus.FieldLogger) *Builder {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Builder{banks: banks, log: log}
}

var (
	errMissingColumn = errors.New("mapped column missing from row")
	errBlankName     = errors.New("payee name is empty")
	errNameCharset   = errors.New("payee name has no characters from the SEPA set")
	errNotPositive   = errors.New("amount must be positive")
)

// Build processes rows in order and folds the results into a new Batch.
func (b *Builder) Build(rows []types.RawRow, mapping types.ColumnMapping, sender types.SenderProfile) *Batch {
	out := &Batch{}
	for _, row := range rows {
		res := b.ProcessRow(row, mapping, sender)
		if !res.OK() {
			b.log.WithFields(logrus.Fields{
				"row":    res.Failure.Row,
				"stage":  res.Failure.Stage,
				"reason": res.Failure.Err.Error(),
			}).Debug("skipping row")
		}
		out.add(res)
	}
	return out
}

// ProcessRow runs one row through the pipeline.
func (b *Builder) ProcessRow(row types.RawRow, mapping types.ColumnMapping, sender types.SenderProfile) RowResult {
	fail := func(stage Stage, err error) RowResult {
		return RowResult{Failure: &RowFailure{Row: row.Number, Stage: stage, Err: err}}
	}

	cells := make(map[string]types.Cell, len(types.RequiredFields))
	for _, field := range types.RequiredFields {
		header := mapping.Header(field)
		c, ok := row.Get(header)
		if header == "" || !ok {
			return fail(StageExtract, fmt.Errorf("%s: %w", field, errMissingColumn))
		}
		cells[field] = c
	}

	name := strings.TrimSpace(cells[types.FieldName].String())
	if name == "" {
		return fail(StageExtract, errBlankName)
	}
	if validation.CleanText(name) == "" {
		return fail(StageExtract, errNameCharset)
	}

	iban, err := b.banks.ValidateIBAN(cells[types.FieldIBAN].String())
	if err != nil {
		return fail(StageIBAN, err)
	}

	var provided string
	if mapping.BIC != "" {
		if c, ok := row.Get(mapping.BIC); ok {
			provided = c.String()
		}
	}
	bic := b.banks.ResolveBIC(iban, provided)

	minor, err := amount.NormalizeCell(cells[types.FieldAmount])
	if err != nil {
		return fail(StageAmount, err)
	}
	if minor <= 0 {
		return fail(StageAmount, errNotPositive)
	}

	return RowResult{Record: &types.PaymentRecord{
		Row:           row.Number,
		Name:          name,
		IBAN:          iban,
		BIC:           bic,
		AmountMinor:   minor,
		Description:   strings.TrimSpace(cells[types.FieldDescription].String()),
		ExecutionDate: sender.ExecutionDate,
	}}
}

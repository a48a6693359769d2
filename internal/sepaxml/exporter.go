// =============================================================================
// XLS to SEPA Converter - SEPA XML Exporter
// =============================================================================
//
// This module serializes a payment batch as an ISO 20022 pain.001.001.03
// customer credit transfer initiation.
//
// XML STRUCTURE:
//
//   <Document xmlns="urn:iso:std:iso:20022:tech:xsd:pain.001.001.03">
//     <CstmrCdtTrfInitn>
//       <GrpHdr>                          <!-- message id, count, sum -->
//       <PmtInf>                          <!-- one per batch, the sender -->
//         <BtchBookg>true</BtchBookg>
//         <PmtTpInf><SvcLvl><Cd>SEPA</Cd></SvcLvl></PmtTpInf>
//         <ChrgBr>SLEV</ChrgBr>
//         <CdtTrfTxInf>                   <!-- one per payment record -->
//           <Amt><InstdAmt Ccy="EUR">1234.56</InstdAmt></Amt>
//           <CdtrAgt>                     <!-- omitted for IBAN-only -->
//           <RmtInf><Ustrd>             <!-- omitted when empty -->
//
// CHECKS BEFORE WRITING:
//   - The batch holds at least one record.
//   - The batch total equals the sum of its records (CtrlSum).
//   - No record fails a SEPA field rule with severity "error".
//
// =============================================================================

package sepaxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/amount"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/batch"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/validation"
)

const (
	currency    = "EUR"
	notProvided = "NOTPROVIDED"
)

var (
	// ErrEmptyBatch is returned when there is nothing to export.
	ErrEmptyBatch = errors.New("batch contains no payments")

	// ErrControlSum is returned when the batch total does not match its records.
	ErrControlSum = errors.New("batch total does not match payment sum")

	// ErrPartyName is returned when the debtor or initiating party name has
	// no characters from the SEPA set.
	ErrPartyName = errors.New("party name is empty after SEPA cleaning")
)

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options contains options for XML generation.
type Options struct {
	// InitiatingParty is the GrpHdr/InitgPty name. Default: the sender name.
	InitiatingParty string

	// ChargeBearer is the PmtInf/ChrgBr code.
	// Default: "SLEV"
	ChargeBearer string

	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// Validation controls the pre-export field checks.
	Validation validation.ValidationOptions

	// Now and NewID are clock and id sources. Nil uses time.Now and
	// random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{
		ChargeBearer:          "SLEV",
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// Result is a generated document together with its pre-export findings.
type Result struct {
	XML       []byte
	MessageID string

	// Findings holds the warnings raised for the exported records.
	Findings *validation.ValidationResult
}

// =============================================================================
// EXPORTER
// =============================================================================

// Exporter writes pain.001 documents.
type Exporter struct {
	options Options
}

// NewExporter creates an Exporter. Zero-valued fields fall back to defaults.
func NewExporter(options Options) *Exporter {
	if options.ChargeBearer == "" {
		options.ChargeBearer = "SLEV"
	}
	if options.Indent == "" {
		options.Indent = "  "
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = newMessageID
	}
	return &Exporter{options: options}
}

// newMessageID returns a 32-character id, within the 35-character limit.
func newMessageID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Export checks b and renders it for sender.
func (e *Exporter) Export(b *batch.Batch, sender types.SenderProfile) (*Result, error) {
	if b == nil || len(b.Records) == 0 {
		return nil, ErrEmptyBatch
	}

	var sum int64
	for _, rec := range b.Records {
		sum += rec.AmountMinor
	}
	if sum != b.TotalMinor {
		return nil, fmt.Errorf("%w: total %s, records %s", ErrControlSum,
			amount.Format(b.TotalMinor), amount.Format(sum))
	}

	findings := validation.NewValidatorWithOptions(e.options.Validation).ValidateAll(b.Records)
	if !findings.IsValid {
		first := findings.Err()
		if first == nil {
			first = findings.Errors[0]
		}
		return nil, fmt.Errorf("batch failed SEPA validation: %w", first)
	}

	for _, name := range []string{sender.Name, e.initiator(sender)} {
		if validation.CleanText(name) == "" {
			return nil, fmt.Errorf("%w: %q", ErrPartyName, name)
		}
	}

	doc := e.buildDocument(b, sender)

	out, err := e.marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	return &Result{XML: out, MessageID: doc.Initn.GrpHdr.MsgId, Findings: findings}, nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

func (e *Exporter) buildDocument(b *batch.Batch, sender types.SenderProfile) *Document {
	now := e.options.Now()
	ctrlSum := amount.Format(b.TotalMinor)

	initiator := e.initiator(sender)

	execDate := sender.ExecutionDate
	if execDate.IsZero() {
		execDate = now
	}

	pmt := PaymentInformation{
		PmtInfId:    e.options.NewID(),
		PmtMtd:      "TRF",
		BtchBookg:   true,
		NbOfTxs:     len(b.Records),
		CtrlSum:     ctrlSum,
		PmtTpInf:    PaymentTypeInformation{SvcLvl: ServiceLevel{Cd: "SEPA"}},
		ReqdExctnDt: execDate.Format("2006-01-02"),
		Dbtr:        Party{Nm: sepaText(sender.Name, validation.MaxNameLength)},
		DbtrAcct:    Account{Id: AccountId{IBAN: sender.IBAN}},
		DbtrAgt:     agent(sender.BIC),
		ChrgBr:      e.options.ChargeBearer,
	}

	for _, rec := range b.Records {
		pmt.CdtTrfTxInf = append(pmt.CdtTrfTxInf, buildTransfer(rec))
	}

	return &Document{
		Xmlns: Namespace,
		Initn: CstmrCdtTrfInitn{
			GrpHdr: GroupHeader{
				MsgId:    e.options.NewID(),
				CreDtTm:  now.Format("2006-01-02T15:04:05"),
				NbOfTxs:  len(b.Records),
				CtrlSum:  ctrlSum,
				InitgPty: Party{Nm: sepaText(initiator, validation.MaxNameLength)},
			},
			PmtInf: []PaymentInformation{pmt},
		},
	}
}

// initiator returns the InitgPty name, falling back to the sender.
func (e *Exporter) initiator(sender types.SenderProfile) string {
	if e.options.InitiatingParty != "" {
		return e.options.InitiatingParty
	}
	return sender.Name
}

// buildTransfer constructs one CdtTrfTxInf element.
func buildTransfer(rec types.PaymentRecord) CreditTransfer {
	tx := CreditTransfer{
		PmtId: PaymentId{EndToEndId: notProvided},
		Amt: Amount{InstdAmt: InstructedAmount{
			Ccy:   currency,
			Value: amount.Format(rec.AmountMinor),
		}},
		Cdtr:     Party{Nm: sepaText(rec.Name, validation.MaxNameLength)},
		CdtrAcct: Account{Id: AccountId{IBAN: rec.IBAN}},
	}

	if rec.BIC != "" {
		a := agent(rec.BIC)
		tx.CdtrAgt = &a
	}

	if desc := sepaText(rec.Description, validation.MaxRemittanceLength); desc != "" {
		tx.RmtInf = &RemittanceInformation{Ustrd: desc}
	}

	return tx
}

// agent builds a FinInstnId, using the NOTPROVIDED marker for an empty BIC.
func agent(bic string) Agent {
	if bic == "" {
		return Agent{FinInstnId: FinancialInstitution{Othr: &OtherFinId{Id: notProvided}}}
	}
	return Agent{FinInstnId: FinancialInstitution{BIC: bic}}
}

func sepaText(s string, max int) string {
	return validation.Truncate(validation.CleanText(s), max)
}

// marshal renders doc with the configured indentation and declaration.
func (e *Exporter) marshal(doc *Document) ([]byte, error) {
	var buffer bytes.Buffer

	if e.options.IncludeXMLDeclaration {
		buffer.WriteString(xml.Header)
	}

	enc := xml.NewEncoder(&buffer)
	enc.Indent("", e.options.Indent)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	buffer.WriteString("\n")

	return buffer.Bytes(), nil
}

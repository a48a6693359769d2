// =============================================================================
// XLS to SEPA Converter - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It orchestrates the entire
// pipeline for a single spreadsheet, from reading the file to writing the
// pain.001 document.
//
// CONVERSION PIPELINE:
//   1. Read the spreadsheet (xlsx, xls or csv) into a header + rows table
//   2. Suggest a column mapping from the headers
//   3. Lay config and flag overrides over the suggestion and validate it
//   4. Validate the sender profile
//   5. Build the payment batch, skipping rows that fail
//   6. Export the batch as SEPA XML
//   7. Write the output file and the row failure log
//
// Steps 1-5 are shared by the preview command. Step 6-7 run for generate.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/bankid"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/batch"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/config"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/mapping"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/sepaxml"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/sheet"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/validation"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Table is the spreadsheet as read.
	Table *sheet.Table

	// Mapping is the column mapping that was applied.
	Mapping types.ColumnMapping

	// Sender is the validated payer.
	Sender types.SenderProfile

	// Batch holds the kept records and the row failures.
	Batch *batch.Batch

	// Export is the generated document. Nil for previews.
	Export *sepaxml.Result

	// OutputFile is the path to the generated XML file.
	// This is empty for previews and dry runs.
	OutputFile string

	// FailureLog is the path to the row failure log, if one was written.
	FailureLog string

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// RowsRead is the number of non-empty data rows in the file.
	RowsRead int

	// Attempted, Succeeded and Failed are the batch counters.
	Attempted int
	Succeeded int
	Failed    int

	// Warnings is the number of SEPA field warnings on exported records.
	Warnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options carries per-run overrides, normally taken from command-line flags.
// Non-empty values win over the configuration file.
type Options struct {
	// Mapping overrides individual column assignments.
	Mapping types.ColumnMapping

	// Sender overrides individual sender fields.
	Sender config.SenderSettings

	// Sheet overrides the worksheet name.
	Sheet string

	// OutputPath is an explicit output file. Empty means a generated name
	// in the configured output directory.
	OutputPath string

	// DryRun builds and exports the document without writing any file.
	DryRun bool

	// Strict rejects the batch when any record raises a SEPA warning.
	Strict bool
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the conversion of spreadsheets to SEPA XML.
type Converter struct {
	config *config.MainConfig
	banks  *bankid.Resolver
	mapper *mapping.Mapper
	log    logrus.FieldLogger

	// now is the clock used for execution dates, ids and file names.
	now func() time.Time
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - cfg: The application configuration. Nil uses config.Default().
//   - log: Logger for progress and skipped rows. Nil discards output.
//
// RETURNS:
//   - A new Converter instance.
//   - An error if the configured bank registry file cannot be loaded.
func New(cfg *config.MainConfig, log logrus.FieldLogger) (*Converter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}

	registry := bankid.Registry(bankid.DefaultRegistry())
	if cfg.BankRegistryFile != "" {
		custom, err := bankid.LoadRegistry(cfg.BankRegistryFile)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"file":  cfg.BankRegistryFile,
			"banks": custom.Len(),
		}).Debug("loaded bank registry")
		registry = bankid.MergeRegistries(custom, registry)
	}

	return &Converter{
		config: cfg,
		banks:  bankid.NewResolver(registry),
		mapper: mapping.NewMapper(mapping.NewKeywordTable(cfg.Keywords)),
		log:    log,
		now:    time.Now,
	}, nil
}

// =============================================================================
// PIPELINE STEPS
// =============================================================================

// Load reads the spreadsheet at path.
func (c *Converter) Load(path string, opts Options) (*sheet.Table, error) {
	sheetName := c.config.Sheet
	if opts.Sheet != "" {
		sheetName = opts.Sheet
	}

	table, err := sheet.Read(path, sheet.Options{Sheet: sheetName, CSV: c.config.CSV})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"file":    path,
		"format":  table.Format,
		"columns": len(table.Headers),
		"rows":    len(table.Rows),
	}).Debug("read spreadsheet")

	return table, nil
}

// Suggest returns the keyword-based mapping for the table headers.
func (c *Converter) Suggest(table *sheet.Table) types.ColumnMapping {
	return c.mapper.Suggest(table.Headers)
}

// ResolveMapping merges config and flag overrides over the suggestion and
// checks the result against the table headers.
func (c *Converter) ResolveMapping(table *sheet.Table, opts Options) (types.ColumnMapping, error) {
	m := mapping.Resolve(c.Suggest(table), c.config.Mapping)
	m = mapping.Resolve(m, opts.Mapping)

	if err := mapping.Validate(m, table.Headers); err != nil {
		return m, fmt.Errorf("invalid column mapping: %w", err)
	}
	return m, nil
}

// Sender validates the sender assembled from config and flag overrides.
func (c *Converter) Sender(opts Options) (types.SenderProfile, error) {
	s := c.config.Sender
	if v := opts.Sender.Name; v != "" {
		s.Name = v
	}
	if v := opts.Sender.IBAN; v != "" {
		s.IBAN = v
	}
	if v := opts.Sender.BIC; v != "" {
		s.BIC = v
	}
	if v := opts.Sender.ExecutionDate; v != "" {
		s.ExecutionDate = v
	}

	return batch.NewSenderProfile(c.banks, s.Name, s.IBAN, s.BIC, s.ExecutionDate, c.now())
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// Prepare runs the pipeline up to the built batch. It backs the preview
// command and is the first half of Run.
func (c *Converter) Prepare(path string, opts Options) (*Result, error) {
	startTime := time.Now()
	result := &Result{FilePath: path}

	table, err := c.Load(path, opts)
	if err != nil {
		return nil, err
	}
	result.Table = table
	result.Stats.RowsRead = len(table.Rows)

	m, err := c.ResolveMapping(table, opts)
	if err != nil {
		return nil, err
	}
	result.Mapping = m

	sender, err := c.Sender(opts)
	if err != nil {
		return nil, err
	}
	result.Sender = sender

	b := batch.NewBuilder(c.banks, c.log).Build(table.Rows, m, sender)
	result.Batch = b
	result.Stats.Attempted = b.Attempted
	result.Stats.Succeeded = b.Succeeded()
	result.Stats.Failed = b.Failed
	result.Stats.ProcessingTime = time.Since(startTime)

	c.log.WithFields(logrus.Fields{
		"file":      filepath.Base(path),
		"attempted": b.Attempted,
		"kept":      b.Succeeded(),
		"failed":    b.Failed,
		"total":     b.Total(),
	}).Info("built payment batch")

	return result, nil
}

// Run executes the full conversion pipeline for the file.
//
// RETURNS:
//   - The Result. It is non-nil whenever the batch was built, even if the
//     export failed, so callers can report the skipped rows.
//   - An error if any step fails.
//
// PROCESSING STEPS:
//   1. Prepare the batch (read, map, validate sender, build)
//   2. Export the batch as pain.001
//   3. Write the output file
//   4. Write the failure log next to it when rows were skipped
func (c *Converter) Run(path string, opts Options) (*Result, error) {
	startTime := time.Now()

	result, err := c.Prepare(path, opts)
	if err != nil {
		return nil, err
	}

	now := c.now()
	outputPath := c.outputPath(path, result.Sender, opts, now)

	exporter := sepaxml.NewExporter(sepaxml.Options{
		InitiatingParty:       c.config.SEPA.InitiatingParty,
		ChargeBearer:          c.config.SEPA.ChargeBearer,
		IncludeXMLDeclaration: true,
		Validation: validation.ValidationOptions{
			TreatWarningsAsErrors: opts.Strict,
			Today:                 now,
		},
		Now: c.now,
	})

	export, exportErr := exporter.Export(result.Batch, result.Sender)
	if export != nil {
		result.Export = export
		result.Stats.Warnings = export.Findings.WarningCount
	}

	if !opts.DryRun {
		logPath, err := c.writeFailureLog(path, outputPath, result)
		if err != nil {
			c.log.WithError(err).Warn("failed to write failure log")
		}
		result.FailureLog = logPath
	}

	if exportErr != nil {
		result.Stats.ProcessingTime = time.Since(startTime)
		return result, fmt.Errorf("failed to export %s: %w", filepath.Base(path), exportErr)
	}

	if !opts.DryRun {
		if err := utils.WriteFileAtomic(outputPath, export.XML); err != nil {
			return result, fmt.Errorf("failed to write output: %w", err)
		}
		result.OutputFile = outputPath
		c.log.WithFields(logrus.Fields{
			"file":       outputPath,
			"message_id": export.MessageID,
			"payments":   result.Batch.Succeeded(),
			"total":      result.Batch.Total(),
		}).Info("wrote SEPA file")
	}

	result.Stats.ProcessingTime = time.Since(startTime)
	return result, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// outputPath returns the explicit output path or a generated one.
func (c *Converter) outputPath(input string, sender types.SenderProfile, opts Options, now time.Time) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}

	base := filepath.Base(input)
	fileName := utils.GenerateOutputFileName(c.config.OutputFileFormat, map[string]string{
		"sender":   sender.Name,
		"original": strings.TrimSuffix(base, filepath.Ext(base)),
	}, now)

	return filepath.Join(c.config.OutputDir, fileName)
}

// writeFailureLog records skipped rows and field warnings next to the output.
func (c *Converter) writeFailureLog(input, outputPath string, result *Result) (string, error) {
	entries := FailureEntries(result)
	if len(entries) == 0 {
		return "", nil
	}
	return utils.WriteErrorLog(entries, utils.ErrorLogPath(outputPath), filepath.Base(input))
}

// FailureEntries lists the row failures of the batch followed by the SEPA
// field findings of the export, if any.
func FailureEntries(result *Result) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry

	if result.Batch != nil {
		for _, f := range result.Batch.Failures {
			entries = append(entries, utils.ErrorLogEntry{
				RowNumber:    f.Row,
				ErrorType:    string(f.Stage),
				ErrorMessage: f.Err.Error(),
			})
		}
	}

	if result.Export != nil && result.Export.Findings != nil {
		for _, v := range result.Export.Findings.Errors {
			entries = append(entries, utils.ErrorLogEntry{
				RowNumber:    v.RowNumber,
				ErrorType:    v.Severity + ": " + v.Rule,
				ErrorMessage: v.Message,
				FieldName:    v.Field,
				FieldValue:   v.Value,
			})
		}
	}

	return entries
}

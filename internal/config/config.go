// =============================================================================
// XLS to SEPA Converter - Configuration Module
// =============================================================================
//
// This module loads the YAML configuration file (xls2sepa.yaml by default).
//
// The file is optional. Every key has a default, and command-line flags
// override whatever the file sets. A typical file:
//
//   output_dir: ./output
//   log_level: info
//   sender:
//     name: ACME GmbH
//     iban: DE89370400440532013000
//     bic: COBADEFFXXX
//   mapping:
//     description: Memo
//   keywords:
//     amount: [montant]
//   csv:
//     delimiter: ";"
//     encoding: ISO-8859-1
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "xls2sepa.yaml"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where generated XML files and failure logs are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputFileFormat defines the output file name.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {sender}    - Sender name, reduced to file-safe characters
	// Default: "sepa_{timestamp}_{uuid}.xml"
	OutputFileFormat string `yaml:"output_file_format"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log encoding: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	// LogFile, when set, receives log output instead of stderr.
	LogFile string `yaml:"log_file"`

	// =========================================================================
	// WORKFLOW SETTINGS
	// =========================================================================

	// PreviewRows is the number of records shown by the preview command.
	// Zero or unset selects the default of 10. For a summary-only preview
	// pass --rows 0 to the preview command.
	PreviewRows int `yaml:"preview_rows"`

	// Sheet is the worksheet to read. Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// Sender is the payer of every generated batch.
	Sender SenderSettings `yaml:"sender"`

	// Mapping overrides suggested column assignments. Empty fields keep the
	// suggestion.
	Mapping types.ColumnMapping `yaml:"mapping"`

	// Keywords adds header keywords per field on top of the built-in table.
	// Keys must be one of: name, iban, bic, amount, description.
	Keywords map[string][]string `yaml:"keywords"`

	// BankRegistryFile is an optional YAML file of country -> bank code -> BIC
	// entries consulted before the bundled registry.
	BankRegistryFile string `yaml:"bank_registry_file"`

	// CSV contains settings for CSV input files.
	CSV CSVSettings `yaml:"csv"`

	// SEPA contains document-level settings of the generated XML.
	SEPA SEPASettings `yaml:"sepa"`
}

// SenderSettings is the unvalidated sender as written in the config file.
type SenderSettings struct {
	Name string `yaml:"name"`
	IBAN string `yaml:"iban"`
	BIC  string `yaml:"bic"`

	// ExecutionDate is YYYY-MM-DD. Empty or malformed means today.
	ExecutionDate string `yaml:"execution_date"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the field separator. Accepts a single character or one of
	// "tab", "semicolon", "pipe", "comma". Empty means detect from the header line.
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the file.
	// Common values: "UTF-8", "ISO-8859-1", "ISO-8859-15", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// SEPA SETTINGS STRUCTURE
// =============================================================================

// SEPASettings contains settings for the pain.001 document.
type SEPASettings struct {
	// InitiatingParty is the InitgPty name. Default: the sender name.
	InitiatingParty string `yaml:"initiating_party"`

	// ChargeBearer is the ChrgBr code. SEPA credit transfers use "SLEV".
	// Default: "SLEV"
	ChargeBearer string `yaml:"charge_bearer"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied.
//   - An error if the file cannot be read, parsed, or fails validation.
//     A missing file is reported with an error wrapping fs.ErrNotExist.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseMainConfig(data)
}

// ParseMainConfig decodes, defaults and validates a YAML document.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file exists.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.OutputFileFormat == "" {
		config.OutputFileFormat = "sepa_{timestamp}_{uuid}.xml"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	if config.PreviewRows == 0 {
		config.PreviewRows = 10
	}
	if config.CSV.Encoding == "" {
		config.CSV.Encoding = "UTF-8"
	}
	if config.SEPA.ChargeBearer == "" {
		config.SEPA.ChargeBearer = "SLEV"
	}
}

var (
	validLogLevels     = []string{"debug", "info", "warn", "error"}
	validLogFormats    = []string{"text", "json"}
	validChargeBearers = []string{"SLEV", "SHAR", "DEBT", "CRED"}
)

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if !contains(validLogLevels, strings.ToLower(config.LogLevel)) {
		return fmt.Errorf("log_level %q must be one of %v", config.LogLevel, validLogLevels)
	}
	if !contains(validLogFormats, strings.ToLower(config.LogFormat)) {
		return fmt.Errorf("log_format %q must be one of %v", config.LogFormat, validLogFormats)
	}
	if config.PreviewRows < 0 {
		return fmt.Errorf("preview_rows must not be negative")
	}
	if !contains(validChargeBearers, config.SEPA.ChargeBearer) {
		return fmt.Errorf("sepa.charge_bearer %q must be one of %v", config.SEPA.ChargeBearer, validChargeBearers)
	}
	if !strings.HasSuffix(strings.ToLower(config.OutputFileFormat), ".xml") {
		return fmt.Errorf("output_file_format %q must end in .xml", config.OutputFileFormat)
	}

	for field := range config.Keywords {
		if !contains(types.Fields, field) {
			return fmt.Errorf("keywords: unknown field %q", field)
		}
	}

	if _, err := ParseDelimiter(config.CSV.Delimiter); err != nil {
		return fmt.Errorf("csv.delimiter: %w", err)
	}

	return nil
}

// ParseDelimiter turns a delimiter setting into a rune. Zero means auto-detect.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "\\t", "\t", "tab":
		return '\t', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	}

	r := []rune(s)
	if len(r) != 1 || r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, fmt.Errorf("unsupported delimiter %q", s)
	}
	return r[0], nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

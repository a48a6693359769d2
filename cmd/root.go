// =============================================================================
// XLS to SEPA Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (xls2sepa)
//   ├── suggestCmd  (xls2sepa suggest FILE)
//   ├── previewCmd  (xls2sepa preview FILE)
//   ├── generateCmd (xls2sepa generate FILE...)
//   └── versionCmd  (xls2sepa version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the YAML configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are set up by the root command before any
// subcommand runs.
var (
	appConfig *config.MainConfig
	logger    *logrus.Logger
)

// logFile is the open log_file handle, closed after the command finishes.
var logFile *os.File

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xls2sepa",
	Short: "XLS to SEPA Converter - Turn payment spreadsheets into SEPA credit transfer files",
	Long: `XLS to SEPA Converter reads a spreadsheet of outgoing payments (xlsx, xls or
csv), maps its columns to payee name, IBAN, BIC, amount and description, and
writes an ISO 20022 pain.001 SEPA credit transfer batch for bulk upload.

Rows that cannot be turned into a valid payment are skipped and listed in a
failure log next to the generated file.

Example Usage:
  xls2sepa suggest payments.xlsx                  # Show the suggested column mapping
  xls2sepa preview payments.xlsx                  # Show the first records and the total
  xls2sepa generate payments.xlsx -o batch.xml    # Write the SEPA file
  xls2sepa generate --config ./acme.yaml *.xlsx   # Use a custom configuration file`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}

		closeLogFile()
		log, file, err := newLogger(cfg, verbose, os.Stderr)
		if err != nil {
			return err
		}

		appConfig, logger, logFile = cfg, log, file
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogFile()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	// PersistentPostRun is skipped when a command fails.
	closeLogFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// CONFIGURATION AND LOGGING
// =============================================================================

// loadConfig reads the configuration file. A missing file is only an error
// when the path was given explicitly.
func loadConfig(path string, explicit bool) (*config.MainConfig, error) {
	cfg, err := config.LoadMainConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load config: %w", err)
}

// newLogger builds the application logger from the logging settings.
//
// PARAMETERS:
//   - cfg: Supplies log_level, log_format and log_file.
//   - debug: Forces the debug level (--verbose).
//   - out: Destination when no log file is configured.
//
// RETURNS:
//   - The logger and the opened log file, which is nil without log_file.
//     The caller owns the file.
func newLogger(cfg *config.MainConfig, debug bool, out io.Writer) (*logrus.Logger, *os.File, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.LogFile == "" {
		log.SetOutput(out)
		return log, nil, nil
	}

	// Opened last so no later failure can leak the handle.
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

// closeLogFile closes the log file opened for the current command, if any.
func closeLogFile() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
	logFile = nil
	if logger != nil {
		logger.SetOutput(os.Stderr)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file (optional when left at the default)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

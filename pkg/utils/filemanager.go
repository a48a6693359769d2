// =============================================================================
// XLS to SEPA Converter - File Manager Utility
// =============================================================================
//
// This module provides file utilities for the converter:
//   - Output file naming
//   - Atomic output writing
//   - Row failure log generation
//
// OUTPUT LAYOUT:
//   output/
//     sepa_20261019_143022_<uuid>.xml          <- the pain.001 document
//     sepa_20261019_143022_<uuid>.errors.txt   <- skipped rows, if any
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a unique output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {sender}    - Sender name
//               {original}  - Input file name (without extension)
//   - params: Placeholder values. Values are reduced to file-safe characters.
//   - now: The time used for {timestamp} and {date}.
//
// RETURNS:
//   - The generated file name, always ending in .xml.
//
// EXAMPLE:
//   format: "{sender}_{timestamp}_{uuid}.xml"
//   params: {"sender": "ACME GmbH"}
//   output: "ACME_GmbH_20261019_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xml"
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", SanitizeFileName(value))
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".xml") {
		result += ".xml"
	}

	return result
}

// SanitizeFileName keeps letters, digits, '-', '_' and '.'; runs of anything
// else become a single underscore.
func SanitizeFileName(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_.")
}

// ErrorLogPath returns the failure log path that belongs to an output file.
func ErrorLogPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".errors.txt"
}

// =============================================================================
// OUTPUT WRITING
// =============================================================================

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it into place, creating the directory if needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single skipped row or validation finding.
type ErrorLogEntry struct {
	// RowNumber is the spreadsheet row, 0 when not row-specific.
	RowNumber int

	// ErrorType is the failing stage or rule, e.g. "amount" or "iban_only".
	ErrorType string

	ErrorMessage string
	FieldName    string
	FieldValue   string
}

// WriteErrorLog writes error entries to a log file.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - logPath: The file to write.
//   - source: The input file name shown in the header.
//
// RETURNS:
//   - The path to the error log file, "" when there was nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, logPath, source string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "XLS to SEPA Converter - Error Log\n"+
		"Source: %s\n"+
		"Generated: %s\n"+
		"Total Entries: %d\n"+
		"================================================================================\n\n",
		source,
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Entry #%d\n", i+1)
		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number:     %d\n", entry.RowNumber)
		}
		fmt.Fprintf(writer, "  Error Type:     %s\n", entry.ErrorType)
		fmt.Fprintf(writer, "  Message:        %s\n", entry.ErrorMessage)
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			fmt.Fprintf(writer, "  Value:          %s\n", entry.FieldValue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

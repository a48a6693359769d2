package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/config"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/converter"
)

const testPayments = "Empfänger;IBAN;BIC;Betrag;Verwendungszweck\n" +
	"Anna Muster;DE14621656389698315367;;1.234,56;Invoice 1\n" +
	"Bad Iban;FR7630006000011234567890101;;10,00;Invoice 2\n" +
	"Bob Builder;NL91ABNA0417164300;;50;Rent\n"

// setup writes an input file and a config file pointing output at a temp dir.
func setup(t *testing.T) (input, cfgPath, outDir string) {
	t.Helper()
	dir := t.TempDir()
	outDir = filepath.Join(dir, "output")

	input = filepath.Join(dir, "payments.csv")
	require.NoError(t, os.WriteFile(input, []byte(testPayments), 0644))

	cfgPath = filepath.Join(dir, "xls2sepa.yaml")
	cfg := "output_dir: " + outDir + "\n" +
		"log_level: error\n" +
		"sender:\n" +
		"  name: ACME GmbH\n" +
		"  iban: DE89370400440532013000\n" +
		"  bic: COBADEFFXXX\n" +
		"  execution_date: \"2099-01-02\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	generateOpts = converter.Options{}
	previewOpts = converter.Options{}
	suggestOpts = converter.Options{}
	previewRows = -1
	return input, cfgPath, outDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoadConfig_MissingDefaultIsAllowed(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), config.DefaultPath), false)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_MissingExplicitFails(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "custom.yaml"), true)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"

	var buf bytes.Buffer
	log, file, err := newLogger(cfg, false, &buf)
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	log, _, err = newLogger(cfg, true, &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewLogger_File(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "app.log")

	log, file, err := newLogger(cfg, false, os.Stderr)
	require.NoError(t, err)
	require.NotNil(t, file)
	log.Info("to file")
	require.NoError(t, file.Close())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNewLogger_BadLevelOpensNoFile(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	cfg.LogFile = filepath.Join(t.TempDir(), "app.log")

	_, file, err := newLogger(cfg, false, os.Stderr)
	require.Error(t, err)
	assert.Nil(t, file)
	assert.NoFileExists(t, cfg.LogFile)
}

func TestLogFileClosedAfterCommand(t *testing.T) {
	input, cfgPath, _ := setup(t)
	logPath := filepath.Join(t.TempDir(), "app.log")

	raw, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	cfg := strings.Replace(string(raw), "log_level: error\n", "log_level: info\nlog_file: "+logPath+"\n", 1)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	_, err = execute(t, "generate", "--config", cfgPath, input)
	require.NoError(t, err)
	assert.Nil(t, logFile)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "built payment batch")
}

func TestSuggestCommand(t *testing.T) {
	input, cfgPath, _ := setup(t)

	out, err := execute(t, "suggest", "--config", cfgPath, input)
	require.NoError(t, err)

	assert.Contains(t, out, "Columns: Empfänger, IBAN, BIC, Betrag, Verwendungszweck")
	assert.Contains(t, out, "  name          Empfänger")
	assert.Contains(t, out, "  amount        Betrag")
	assert.Contains(t, out, "Mapping complete.")
}

func TestPreviewCommand(t *testing.T) {
	input, cfgPath, outDir := setup(t)

	out, err := execute(t, "preview", "--config", cfgPath, "--rows", "1", input)
	require.NoError(t, err)

	assert.Contains(t, out, "Anna Muster")
	assert.NotContains(t, out, "Bob Builder")
	assert.Contains(t, out, "... and 1 more")
	assert.Contains(t, out, "Rows attempted:  3")
	assert.Contains(t, out, "Payments kept:   2")
	assert.Contains(t, out, "Total:           EUR 1284.56")
	assert.Contains(t, out, "row 3 (iban)")

	_, err = os.Stat(outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPreviewCommand_SummaryOnly(t *testing.T) {
	input, cfgPath, _ := setup(t)

	out, err := execute(t, "preview", "--config", cfgPath, "--rows", "0", input)
	require.NoError(t, err)

	assert.NotContains(t, out, "Anna Muster")
	assert.NotContains(t, out, "No valid payments.")
	assert.Contains(t, out, "... and 2 more")
	assert.Contains(t, out, "Payments kept:   2")
}

func TestGenerateCommand(t *testing.T) {
	input, cfgPath, outDir := setup(t)

	out, err := execute(t, "generate", "--config", cfgPath, input)
	require.NoError(t, err)
	assert.Contains(t, out, "2 payment(s), EUR 1284.56, 1 row(s) skipped")

	matches, err := filepath.Glob(filepath.Join(outDir, "sepa_*.xml"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "<NbOfTxs>2</NbOfTxs>")
}

func TestGenerateCommand_OutputWithManyFiles(t *testing.T) {
	input, cfgPath, _ := setup(t)

	_, err := execute(t, "generate", "--config", cfgPath, "-o", "x.xml", input, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output can only be used with a single input file")
}

func TestVersionCommand(t *testing.T) {
	_, cfgPath, _ := setup(t)

	out, err := execute(t, "version", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "XLS to SEPA Converter")
	assert.Contains(t, out, "pain.001.001.03")
}

package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/config"
	"github.com/ginjaninja78/XLS-to-SEPA-conversion/internal/types"
)

// writeWorkbook saves rows to a new xlsx file in a temp dir.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	path := filepath.Join(t.TempDir(), "payments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestRead_XLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Empfänger", "IBAN", "BIC", "Betrag", "Verwendungszweck"},
		{"Anna Muster", "DE14621656389698315367", "", 1234.56, "Invoice 1"},
		{nil, nil, nil, nil, nil},
		{"Bob", "NL91ABNA0417164300", "ABNANL2A", "1.234,56", "Invoice 2"},
	})

	table, err := Read(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, table.Format)
	assert.Equal(t, "payments.xlsx", table.Source)
	assert.Equal(t, []string{"Empfänger", "IBAN", "BIC", "Betrag", "Verwendungszweck"}, table.Headers)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, 2, first.Number)
	amt, ok := first.Get("Betrag")
	require.True(t, ok)
	assert.Equal(t, types.CellNumber, amt.Kind)
	assert.Equal(t, 1234.56, amt.Number)

	bic, ok := first.Get("BIC")
	require.True(t, ok)
	assert.Equal(t, types.CellEmpty, bic.Kind)

	second := table.Rows[1]
	assert.Equal(t, 4, second.Number)
	amt, _ = second.Get("Betrag")
	assert.Equal(t, types.TextCell("1.234,56"), amt)
	name, _ := second.Get("Empfänger")
	assert.Equal(t, "Bob", name.String())
}

func TestRead_XLSX_NamedSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Payments")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Payments", "A1", &[]interface{}{"Name", "Amount"}))
	require.NoError(t, f.SetSheetRow("Payments", "A2", &[]interface{}{"X", 5}))
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Read(path, Options{Sheet: "Payments"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 1)
	amt, _ := table.Rows[0].Get("Amount")
	assert.Equal(t, types.NumberCell(5), amt)

	_, err = Read(path, Options{Sheet: "Nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

// testdata/payments.xls is a BIFF8 workbook with two worksheets:
//
//	Payments  header row, data on rows 2 and 4, row 3 absent
//	Archive   Name/Amount with one numeric row
func TestRead_XLS(t *testing.T) {
	table, err := Read(filepath.Join("testdata", "payments.xls"), Options{})
	require.NoError(t, err)

	assert.Equal(t, FormatXLS, table.Format)
	assert.Equal(t, "payments.xls", table.Source)
	assert.Equal(t, []string{"Empfänger", "IBAN", "BIC", "Betrag", "Verwendungszweck"}, table.Headers)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, 2, first.Number)
	name, _ := first.Get("Empfänger")
	assert.Equal(t, types.TextCell("Anna Muster"), name)
	amt, _ := first.Get("Betrag")
	assert.Equal(t, types.TextCell("1234.56"), amt)
	bic, ok := first.Get("BIC")
	require.True(t, ok)
	assert.Equal(t, types.EmptyCell(), bic)

	second := table.Rows[1]
	assert.Equal(t, 4, second.Number)
	name, _ = second.Get("Empfänger")
	assert.Equal(t, "Jörg Müller", name.String())
	bic, _ = second.Get("BIC")
	assert.Equal(t, "ABNANL2A", bic.String())
	amt, _ = second.Get("Betrag")
	assert.Equal(t, types.TextCell("1.234,56"), amt)
	desc, ok := second.Get("Verwendungszweck")
	require.True(t, ok)
	assert.Equal(t, types.EmptyCell(), desc)
}

func TestRead_XLS_NamedSheet(t *testing.T) {
	path := filepath.Join("testdata", "payments.xls")

	table, err := Read(path, Options{Sheet: "Archive"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Amount"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 2, table.Rows[0].Number)
	amt, _ := table.Rows[0].Get("Amount")
	assert.Equal(t, types.TextCell("5"), amt)

	table, err = Read(path, Options{Sheet: "Payments"})
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)

	_, err = Read(path, Options{Sheet: "Nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestBiffString(t *testing.T) {
	assert.Equal(t, "Empfänger", biffString("Empf\xe4nger"))
	assert.Equal(t, "Müller", biffString("Müller"))
	assert.Equal(t, "IBAN", biffString("IBAN"))
}

func TestReadBytes_CSV(t *testing.T) {
	data := []byte("Name;IBAN;Amount;Purpose\n" +
		"Anna;DE14621656389698315367;1.234,56;Invoice 1\n" +
		"\n" +
		";;;\n" +
		"Bob;NL91ABNA0417164300;\"12,50\";Rent\n")

	table, err := ReadBytes("in.csv", data, Options{})
	require.NoError(t, err)

	assert.Equal(t, FormatCSV, table.Format)
	assert.Equal(t, []string{"Name", "IBAN", "Amount", "Purpose"}, table.Headers)
	require.Len(t, table.Rows, 2)

	amt, _ := table.Rows[0].Get("Amount")
	assert.Equal(t, types.TextCell("1.234,56"), amt)
	assert.Equal(t, 2, table.Rows[0].Number)

	amt, _ = table.Rows[1].Get("Amount")
	assert.Equal(t, "12,50", amt.String())
	assert.Equal(t, 5, table.Rows[1].Number)
}

func TestReadBytes_CSV_Latin1(t *testing.T) {
	// "Empfänger" in ISO-8859-1.
	data := []byte("Empf\xe4nger,Betrag\nM\xfcller,10\n")

	table, err := ReadBytes("in.csv", data, Options{CSV: config.CSVSettings{Encoding: "ISO-8859-1"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Empfänger", "Betrag"}, table.Headers)
	name, _ := table.Rows[0].Get("Empfänger")
	assert.Equal(t, "Müller", name.String())
}

func TestReadBytes_CSV_BOMAndExplicitDelimiter(t *testing.T) {
	data := []byte("\xef\xbb\xbfName|Amount\nA|1\n")

	table, err := ReadBytes("in.txt", data, Options{CSV: config.CSVSettings{Delimiter: "pipe"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Amount"}, table.Headers)
}

func TestReadBytes_CSV_UnknownEncoding(t *testing.T) {
	_, err := ReadBytes("in.csv", []byte("a,b\n"), Options{CSV: config.CSVSettings{Encoding: "klingon"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestReadBytes_HeadersCleaned(t *testing.T) {
	data := []byte("Name, ,Amount,Amount,Name\na,b,1,2,c,extra\n")

	table, err := ReadBytes("in.csv", data, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Unnamed: 1", "Amount", "Amount.1", "Name.1", "Unnamed: 5"}, table.Headers)
	extra, _ := table.Rows[0].Get("Unnamed: 5")
	assert.Equal(t, "extra", extra.String())
}

func TestReadBytes_ShortRowsPadded(t *testing.T) {
	table, err := ReadBytes("in.csv", []byte("A,B,C\n1\n"), Options{})
	require.NoError(t, err)

	c, ok := table.Rows[0].Get("C")
	require.True(t, ok)
	assert.Equal(t, types.EmptyCell(), c)
}

func TestReadBytes_Empty(t *testing.T) {
	_, err := ReadBytes("in.csv", []byte("\n\n"), Options{})
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadBytes_BadWorkbook(t *testing.T) {
	_, err := ReadBytes("in.xlsx", []byte("not a zip"), Options{})
	assert.Error(t, err)

	_, err = ReadBytes("in.xls", []byte("not a compound file"), Options{})
	assert.Error(t, err)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.xlsx"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("a.XLSX", nil))
	assert.Equal(t, FormatXLS, DetectFormat("a.xls", nil))
	assert.Equal(t, FormatCSV, DetectFormat("a.csv", []byte("PK\x03\x04")))
	assert.Equal(t, FormatXLSX, DetectFormat("upload", []byte("PK\x03\x04rest")))
	assert.Equal(t, FormatXLS, DetectFormat("upload", cfbMagic))
	assert.Equal(t, FormatCSV, DetectFormat("upload", []byte("a,b")))
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\n")))
	assert.Equal(t, ',', sniffDelimiter([]byte("single")))
}

package bankid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fakerDE     = "DE14621656389698315367" // valid checksum, unknown bank code
	fakerNL     = "NL46HWQO9773240303"
	postbankDE  = "DE02100100100006820101" // bank code 10010010
	commerzDE   = "DE89370400440532013000" // bank code 37040044
	abnNL       = "NL91ABNA0417164300"
	badChecksum = "FR7630006000011234567890101"
)

func TestValidateIBAN_Valid(t *testing.T) {
	r := NewResolver(nil)

	for _, raw := range []string{fakerDE, fakerNL, commerzDE, abnNL} {
		got, err := r.ValidateIBAN(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, got)
	}
}

func TestValidateIBAN_Canonicalizes(t *testing.T) {
	r := NewResolver(nil)

	got, err := r.ValidateIBAN("  de89 3704 0044 0532 0130 00 ")
	require.NoError(t, err)
	assert.Equal(t, commerzDE, got)
	assert.NotContains(t, got, " ")
}

func TestValidateIBAN_BadChecksum(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.ValidateIBAN(badChecksum)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIBAN))

	var ie *InvalidIBANError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, badChecksum, ie.Raw)
}

func TestValidateIBAN_Empty(t *testing.T) {
	_, err := NewResolver(nil).ValidateIBAN("   ")
	assert.ErrorIs(t, err, ErrInvalidIBAN)
}

func TestValidateBIC(t *testing.T) {
	r := NewResolver(nil)

	got, err := r.ValidateBIC(" pbnkdeff ")
	require.NoError(t, err)
	assert.Equal(t, "PBNKDEFF", got)

	_, err = r.ValidateBIC("NOTABIC")
	assert.ErrorIs(t, err, ErrInvalidBIC)
}

func TestResolveBIC_ExplicitWins(t *testing.T) {
	r := NewResolver(DefaultRegistry())

	assert.Equal(t, "PBNKDEFF", r.ResolveBIC(fakerDE, "PBNKDEFF"))
	// Explicit BIC beats the registry entry for the same IBAN.
	assert.Equal(t, "DEUTDEFF500", r.ResolveBIC(commerzDE, "deutdeff500"))
}

func TestResolveBIC_InvalidExplicitFallsBackToRegistry(t *testing.T) {
	r := NewResolver(DefaultRegistry())

	assert.Equal(t, "COBADEFFXXX", r.ResolveBIC(commerzDE, "garbage!"))
}

func TestResolveBIC_RegistryEightCharIsPadded(t *testing.T) {
	r := NewResolver(DefaultRegistry())

	assert.Equal(t, "PBNKDEFFXXX", r.ResolveBIC(postbankDE, ""))
	assert.Equal(t, "ABNANL2AXXX", r.ResolveBIC(abnNL, "  "))
}

func TestResolveBIC_UnknownBankIsEmpty(t *testing.T) {
	r := NewResolver(DefaultRegistry())

	assert.Equal(t, "", r.ResolveBIC(fakerDE, ""))
	assert.Equal(t, "", r.ResolveBIC(fakerNL, ""))
}

func TestResolveBIC_NoRegistry(t *testing.T) {
	assert.Equal(t, "", NewResolver(nil).ResolveBIC(commerzDE, ""))
}

func TestResolveBIC_InvalidRegistryEntryIgnored(t *testing.T) {
	reg := NewStaticRegistry(map[string]map[string]string{
		"DE": {"37040044": "??"},
	})
	assert.Equal(t, "", NewResolver(reg).ResolveBIC(commerzDE, ""))
}

func TestPadBranch(t *testing.T) {
	assert.Equal(t, "COBADEFFXXX", padBranch("COBADEFF"))
	assert.Equal(t, "COBADEFF123", padBranch("COBADEFF123"))
}

func TestStaticRegistry_Lookup(t *testing.T) {
	reg := NewStaticRegistry(map[string]map[string]string{
		"de": {"12345678": " TESTDEFF "},
	})
	bic, ok := reg.LookupBIC("DE", "12345678")
	require.True(t, ok)
	assert.Equal(t, "TESTDEFF", bic)

	_, ok = reg.LookupBIC("NL", "12345678")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banks.yaml")
	require.NoError(t, os.WriteFile(path, []byte("DE:\n  \"62165638\": \"TESTDEFF\"\n"), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	r := NewResolver(MergeRegistries(reg, DefaultRegistry()))
	assert.Equal(t, "TESTDEFFXXX", r.ResolveBIC(fakerDE, ""))
	assert.Equal(t, "COBADEFFXXX", r.ResolveBIC(commerzDE, ""))
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read bank registry")
}

func TestDefaultRegistry_NotEmpty(t *testing.T) {
	assert.Greater(t, DefaultRegistry().Len(), 0)
}

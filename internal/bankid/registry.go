package bankid

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry maps a national bank code to the BIC of that institution.
type Registry interface {
	LookupBIC(country, bankCode string) (string, bool)
}

// StaticRegistry is an in-memory registry keyed by country, then bank code.
type StaticRegistry struct {
	entries map[string]map[string]string
}

//go:embed registry_default.yaml
var defaultRegistryYAML []byte

// NewStaticRegistry builds a registry from a country -> bank code -> BIC table.
// Keys are normalized to upper case.
func NewStaticRegistry(table map[string]map[string]string) *StaticRegistry {
	entries := make(map[string]map[string]string, len(table))
	for country, banks := range table {
		c := strings.ToUpper(strings.TrimSpace(country))
		if entries[c] == nil {
			entries[c] = make(map[string]string, len(banks))
		}
		for code, bic := range banks {
			entries[c][strings.ToUpper(strings.TrimSpace(code))] = strings.TrimSpace(bic)
		}
	}
	return &StaticRegistry{entries: entries}
}

// ParseRegistry decodes a YAML registry document.
func ParseRegistry(data []byte) (*StaticRegistry, error) {
	var table map[string]map[string]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse bank registry: %w", err)
	}
	return NewStaticRegistry(table), nil
}

// LoadRegistry reads a YAML registry file.
func LoadRegistry(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank registry: %w", err)
	}
	return ParseRegistry(data)
}

// DefaultRegistry returns the registry bundled with the binary.
func DefaultRegistry() *StaticRegistry {
	reg, err := ParseRegistry(defaultRegistryYAML)
	if err != nil {
		panic("bundled bank registry is malformed: " + err.Error())
	}
	return reg
}

// LookupBIC implements Registry.
func (s *StaticRegistry) LookupBIC(country, bankCode string) (string, bool) {
	banks, ok := s.entries[strings.ToUpper(country)]
	if !ok {
		return "", false
	}
	bic, ok := banks[strings.ToUpper(bankCode)]
	if !ok || bic == "" {
		return "", false
	}
	return bic, true
}

// Len returns the number of bank codes held.
func (s *StaticRegistry) Len() int {
	n := 0
	for _, banks := range s.entries {
		n += len(banks)
	}
	return n
}

// chain queries registries in order.
type chain []Registry

func (c chain) LookupBIC(country, bankCode string) (string, bool) {
	for _, r := range c {
		if bic, ok := r.LookupBIC(country, bankCode); ok {
			return bic, true
		}
	}
	return "", false
}

// MergeRegistries returns a Registry answering from the first registry that
// knows the bank code. Nil entries are skipped.
func MergeRegistries(regs ...Registry) Registry {
	var c chain
	for _, r := range regs {
		if r != nil {
			c = append(c, r)
		}
	}
	return c
}

type emptyRegistry struct{}

func (emptyRegistry) LookupBIC(string, string) (string, bool) { return "", false }

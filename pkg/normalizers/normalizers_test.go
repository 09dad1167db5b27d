package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Bob   Smith ", "bob smith"},
		{"Martin Luther King Jr.", "martin luther king"},
		{"O'Neil, Shaq", "oneil shaq"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestTypeChains(t *testing.T) {
	chains, err := ParseTypeChains([]string{"Person=nname", "email=nemail", ""})
	require.NoError(t, err)

	assert.Equal(t, "bob smith", chains.Normalize("person", "Bob Smith Jr"))
	assert.Equal(t, "bob@acme.io", chains.Normalize("EMAIL", " Bob@Acme.io "))
	assert.Equal(t, "acme corp", chains.Normalize("Company", "  ACME,   Corp. "))
}

func TestParseTypeChains_Errors(t *testing.T) {
	_, err := ParseTypeChains([]string{"person"})
	assert.Error(t, err)

	_, err = ParseTypeChains([]string{"person=nope"})
	assert.Error(t, err)

	_, err = ParseTypeChains([]string{"=nname"})
	assert.Error(t, err)
}

func TestApplyChain_SkipsUnknown(t *testing.T) {
	assert.Equal(t, "abc", ApplyChain(" ABC ", "trim", "missing", "lowercase"))
	assert.Contains(t, Names(), "nname")
}

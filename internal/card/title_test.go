package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTitle(t *testing.T) {
	assert.Equal(t, "Oracle — FF", FormatTitle("Oracle", "FF", StyleOracleAlt))
	assert.Equal(t, "FF — Oracle", FormatTitle("Oracle", "FF", StyleAltOracle))
	assert.Equal(t, "Oracle", FormatTitle("Oracle", "FF", StyleOracleOnly))
	assert.Equal(t, "Oracle", FormatTitle("Oracle", "", StyleOracleAlt))
	assert.Equal(t, "Oracle", FormatTitle("Oracle", "  ", StyleAltOracle))
	assert.Equal(t, "Oracle — FF", FormatTitle(" Oracle ", " FF ", StyleOracleAlt))
}

func TestCardTitle_OverrideWins(t *testing.T) {
	c := Card{Name: "Oracle", AltName: "FF"}
	assert.Equal(t, "Oracle — FF", c.Title(StyleOracleAlt))

	c.TitleOverride = "Custom"
	assert.Equal(t, "Custom", c.Title(StyleOracleAlt))
}

func TestParseTitleStyle(t *testing.T) {
	for in, want := range map[string]TitleStyle{
		"":            StyleOracleAlt,
		"Oracle — FF": StyleOracleAlt,
		"oracle-ff":   StyleOracleAlt,
		"FF — Oracle": StyleAltOracle,
		"ff-oracle":   StyleAltOracle,
		"Oracle only": StyleOracleOnly,
		"ORACLE":      StyleOracleOnly,
	} {
		got, err := ParseTitleStyle(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseTitleStyle("alt only")
	assert.Error(t, err)
}

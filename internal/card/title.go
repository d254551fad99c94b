package card

import (
	"fmt"
	"strings"
)

// TitleStyle selects how oracle and alternate names are combined into a record title.
type TitleStyle string

const (
	StyleOracleAlt  TitleStyle = "Oracle — FF"
	StyleAltOracle  TitleStyle = "FF — Oracle"
	StyleOracleOnly TitleStyle = "Oracle only"
)

// TitleSeparator sits between the two names in a combined title.
const TitleSeparator = " — "

// TitleStyles lists the supported styles in display order.
var TitleStyles = []TitleStyle{StyleOracleAlt, StyleAltOracle, StyleOracleOnly}

// ParseTitleStyle accepts a display name or a short alias
// (oracle-ff, ff-oracle, oracle).
func ParseTitleStyle(s string) (TitleStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", strings.ToLower(string(StyleOracleAlt)), "oracle-ff":
		return StyleOracleAlt, nil
	case strings.ToLower(string(StyleAltOracle)), "ff-oracle":
		return StyleAltOracle, nil
	case strings.ToLower(string(StyleOracleOnly)), "oracle":
		return StyleOracleOnly, nil
	}
	return "", fmt.Errorf("unknown title style %q (want one of %q, %q, %q)", s, StyleOracleAlt, StyleAltOracle, StyleOracleOnly)
}

// FormatTitle combines the oracle and alternate names. An empty alternate
// name always yields the oracle name alone.
func FormatTitle(oracle, alt string, style TitleStyle) string {
	oracle = strings.TrimSpace(oracle)
	alt = strings.TrimSpace(alt)
	if alt == "" {
		return oracle
	}
	switch style {
	case StyleOracleAlt:
		return oracle + TitleSeparator + alt
	case StyleAltOracle:
		return alt + TitleSeparator + oracle
	default:
		return oracle
	}
}

// Title returns the display title for c: its override when set, otherwise
// the names formatted with style.
func (c Card) Title(style TitleStyle) string {
	if c.TitleOverride != "" {
		return c.TitleOverride
	}
	return FormatTitle(c.Name, c.AltName, style)
}

// Package numfmt parses locale-noisy numeric strings coming out of
// OCR/LLM output. Parsing is best-effort: a value that cannot be read
// yields zero rather than an error, so one bad cell never aborts a batch.
package numfmt

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Parse converts a numeric string into a decimal. A comma marks a
// percentage-formatted value: commas and percent signs are stripped and
// the result divided by 100. Otherwise only percent signs are stripped.
// Unparseable input returns zero.
func Parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		cleaned := strings.ReplaceAll(s, ",", "")
		cleaned = strings.ReplaceAll(cleaned, "%", "")
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero
		}
		return d.Div(hundred)
	}

	d, err := decimal.NewFromString(strings.ReplaceAll(s, "%", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseInt parses s like Parse and truncates to an integer.
func ParseInt(s string) int {
	return int(Parse(s).IntPart())
}

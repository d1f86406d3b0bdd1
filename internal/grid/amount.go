package grid

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// NormalizeAmount parses a sheet cell into a monetary amount. The cell
// may carry the rupiah marker and dot or comma group separators; both
// separators are grouping only, the sheets never write decimal
// fractions. Anything that does not survive the cleanup parses to
// zero, which the acceptance rule then rejects.
//
// Examples:
//   NormalizeAmount("Rp1.234.567") -> 1234567
//   NormalizeAmount("1,234")       -> 1234
//   NormalizeAmount("")            -> 0
//   NormalizeAmount("abc")         -> 0
func NormalizeAmount(raw string) decimal.Decimal {
	s := strings.ReplaceAll(raw, "Rp", "")
	s = strings.ReplaceAll(s, "rp", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

package tally

import (
	"fmt"
	"strconv"
	"strings"
)

// voucherPrefix is the fixed prefix for generated voucher numbers.
const voucherPrefix = "INV-"

// numberBase offsets batch indices so numbers start at INV-100.
const numberBase = 100

// FormatVoucherNumber returns a voucher number like "INV-103" for the
// item at index within a batch. Numbers are scoped to the batch, not a
// global sequence; Tally's Create action accepts repeats across imports.
func FormatVoucherNumber(index int) string {
	return fmt.Sprintf("%s%03d", voucherPrefix, index+numberBase)
}

// ParseVoucherNumber recovers the batch index from a voucher number.
func ParseVoucherNumber(number string) (int, error) {
	rest, ok := strings.CutPrefix(number, voucherPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid voucher number format: %q", number)
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid voucher number %q: %w", number, err)
	}
	if n < numberBase {
		return 0, fmt.Errorf("voucher number %q below base %d", number, numberBase)
	}
	return n - numberBase, nil
}

package model

import (
	"github.com/shopspring/decimal"
)

// LineItem is one parsed invoice row (name, quantity, unit plus the four
// money columns in invoice order).
type LineItem struct {
	Name     string
	Quantity int
	Unit     string // unit-of-measure label, passed through verbatim
	NetPrice decimal.Decimal
	NetWorth decimal.Decimal
	VAT      decimal.Decimal
	Gross    decimal.Decimal
}

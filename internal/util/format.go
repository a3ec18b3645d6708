package util

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders an amount as dollars with thousands separators and
// two decimals, e.g. "$1,234.50" or "-$3.10".
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	str := amount.StringFixed(2)
	intPart, decPart, _ := strings.Cut(str, ".")
	return sign + "$" + groupThousands(intPart) + "." + decPart
}

// FormatCount renders an integer with thousands separators
func FormatCount(n int) string {
	if n < 0 {
		return "-" + groupThousands(strconv.Itoa(-n))
	}
	return groupThousands(strconv.Itoa(n))
}

// FormatAmount renders a decimal with two places and no currency symbol,
// the form used in CSV output.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

package sales

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	currencyPrefix   = "R$ "
	groupSeparator   = "."
	decimalSeparator = ","
	// NoDataPlaceholder is rendered in place of an undefined mean.
	NoDataPlaceholder = "N/D"
)

// FormatCurrency renders a value in Brazilian real notation, e.g. R$ 1.234,50.
// Two fractional digits, rounded half away from zero.
func FormatCurrency(value decimal.Decimal) string {
	fixed := value.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		fixed = fixed[1:]
		if strings.Trim(fixed, "0.") != "" {
			sign = "-"
		}
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	return currencyPrefix + sign + groupThousands(whole) + decimalSeparator + frac
}

// FormatCurrencyFloat is FormatCurrency for chart values kept as float64.
func FormatCurrencyFloat(value float64) string {
	return FormatCurrency(decimal.NewFromFloat(value))
}

// FormatMean renders the mean or the no-data placeholder.
func FormatMean(mean decimal.NullDecimal) string {
	if !mean.Valid {
		return NoDataPlaceholder
	}
	return FormatCurrency(mean.Decimal)
}

// FormatCount renders an integer with dot thousands grouping, e.g. 1.234.
func FormatCount(n int) string {
	if n < 0 {
		return "-" + groupThousands(strconv.Itoa(-n))
	}
	return groupThousands(strconv.Itoa(n))
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(groupSeparator)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBaht memformat nominal ke gaya tampilan menu, contoh: 1250.5 -> "1,250.50 ฿"
func FormatBaht(amount decimal.Decimal) string {
	formatted := amount.StringFixed(2)

	negative := strings.HasPrefix(formatted, "-")
	formatted = strings.TrimPrefix(formatted, "-")

	parts := strings.SplitN(formatted, ".", 2)
	integerPart := parts[0]
	decimalPart := parts[1]

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	result := strings.Join(groups, ",") + "." + decimalPart + " ฿"
	if negative {
		return "-" + result
	}
	return result
}

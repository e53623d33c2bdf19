package formatting

import (
	"fmt"
	"strings"
)

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
}

// FormatPrice сумма во французском формате: "45,00 €"
func FormatPrice(amount float64, currency string) string {
	symbol, ok := currencySymbols[strings.ToUpper(currency)]
	if !ok {
		symbol = strings.ToUpper(currency)
	}
	if symbol == "" {
		symbol = "€"
	}
	return strings.Replace(fmt.Sprintf("%.2f", amount), ".", ",", 1) + " " + symbol
}

// FormatPriceShort без дробной части, если она нулевая
func FormatPriceShort(amount float64, currency string) string {
	full := FormatPrice(amount, currency)
	return strings.Replace(full, ",00 ", " ", 1)
}

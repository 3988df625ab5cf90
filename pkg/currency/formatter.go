package currency

import (
	"fmt"
	"math"
	"strings"
)

var symbols = map[string]string{
	"EUR": "€",
	"GBP": "£",
	"USD": "$",
}

// Format renders amount with two decimals, thousands separators and the
// currency symbol, e.g. "€1,234.50". Unknown codes are prefixed verbatim.
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "EUR"
	}

	cents := math.Round(amount * 100)
	negative := cents < 0
	if negative {
		cents = -cents
	}

	whole := fmt.Sprintf("%.0f", math.Floor(cents/100))
	frac := int(math.Mod(cents, 100))
	formatted := addThousandsSeparator(whole, ",") + fmt.Sprintf(".%02d", frac)

	var result string
	if sym, ok := symbols[code]; ok {
		result = sym + formatted
	} else {
		result = code + " " + formatted
	}
	if negative {
		result = "-" + result
	}

	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}

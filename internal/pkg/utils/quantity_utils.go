package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultTokenPrecision is the precision of the game's token symbols.
const DefaultTokenPrecision int32 = 4

// ParseQuantity parses an Antelope asset quantity into its amount and symbol.
// Example: "12.5000 HNY" => 12.5, "HNY"; "12.5" => 12.5, "".
func ParseQuantity(s string) (decimal.Decimal, string, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	switch len(fields) {
	case 0:
		return decimal.Zero, "", fmt.Errorf("empty quantity")
	case 1, 2:
	default:
		return decimal.Zero, "", fmt.Errorf("malformed quantity %q", s)
	}

	amount, err := decimal.NewFromString(fields[0])
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("malformed quantity %q: %w", s, err)
	}

	symbol := ""
	if len(fields) == 2 {
		symbol = strings.ToUpper(fields[1])
	}
	return amount, symbol, nil
}

// FormatQuantity renders an amount as an asset quantity string with a fixed precision.
// Example: 2.5, 4, "HUNY" => "2.5000 HUNY".
func FormatQuantity(amount decimal.Decimal, precision int32, symbol string) string {
	formatted := amount.StringFixed(precision)
	if symbol == "" {
		return formatted
	}
	return formatted + " " + strings.ToUpper(symbol)
}

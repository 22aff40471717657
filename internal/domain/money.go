package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultExpediteFee is charged for expedited processing when a service has
// no expedited price of its own: $75.00.
const DefaultExpediteFee int64 = 7500

// CalculateTotal returns the order total in cents.
func CalculateTotal(base, expediteFee int64, expedited bool) int64 {
	if expedited {
		return base + expediteFee
	}
	return base
}

// FormatAmount renders cents as a fixed two-decimal string, e.g. 32500 -> "325.00".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount parses a non-negative decimal dollar amount such as "250",
// "250.5" or "250.50" into cents. More than two decimals is an error.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	dollars, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	var cents uint64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("parse amount %q: expected at most two decimals", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseUint(frac, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
	}
	return int64(dollars)*100 + int64(cents), nil
}

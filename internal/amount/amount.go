package amount

import (
	"fmt"
	"strings"
)

// Decimals is the number of implied fractional digits in a fixed-point amount.
const Decimals = 6

// UnitsPerToken is the number of micro-units in one whole token.
const UnitsPerToken int64 = 1_000_000

// Format renders a micro-unit amount as a decimal string with exactly six
// fractional digits. Negative values keep their sign.
func Format(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%06d", sign, v/UnitsPerToken, v%UnitsPerToken)
}

// Parse converts a decimal string into micro-units. Missing fractional digits
// are zero-padded; digits beyond the sixth are truncated, never rounded.
// Negative or malformed inputs are rejected.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount: %s", s)
	}

	whole := s
	frac := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac = s[idx+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount: %s", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		frac = frac[:Decimals]
	}
	frac = frac + strings.Repeat("0", Decimals-len(frac))

	var total int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount: %s", s)
		}
		digit := int64(r - '0')
		if total > (1<<63-1-digit)/10 {
			return 0, fmt.Errorf("amount out of range: %s", s)
		}
		total = total*10 + digit
	}
	if total > (1<<63-1)/UnitsPerToken {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}
	total *= UnitsPerToken

	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid amount: %s", s)
		}
	}
	var fracUnits int64
	for _, r := range frac {
		fracUnits = fracUnits*10 + int64(r-'0')
	}
	if total > (1<<63-1)-fracUnits {
		return 0, fmt.Errorf("amount out of range: %s", s)
	}

	return total + fracUnits, nil
}

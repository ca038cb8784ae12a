package lineitems

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmountDigits bounds the magnitude of a typed amount. Values with more
// integer digits price as zero, like unparseable text. Values below
// 1e-MaxAmountDigits are zero and finer fractions are rounded to that scale.
const MaxAmountDigits = 30

var hundred = decimal.NewFromInt(100)

// ParseAmount reads the leading number typed into a quantity or price cell.
// Trailing garbage is ignored and text without a leading number yields zero,
// so partially typed input never blocks editing.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	var b strings.Builder
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			b.WriteByte('-')
		}
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[intStart:i]
	fracPart := ""
	if i < len(s) && s[i] == '.' {
		fracStart := i + 1
		j := fracStart
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[fracStart:j]
		i = j
	}
	if intPart == "" && fracPart == "" {
		return decimal.Zero
	}
	if intPart == "" {
		intPart = "0"
	}
	b.WriteString(intPart)
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > expStart {
			b.WriteString(s[i:j])
		}
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil || d.IsZero() {
		return decimal.Zero
	}
	if digits := IntegerDigits(d); digits > MaxAmountDigits || digits < -MaxAmountDigits {
		return decimal.Zero
	}
	if d.Exponent() < -MaxAmountDigits {
		d = d.Round(MaxAmountDigits)
	}
	return d
}

// IntegerDigits returns how many digits d has before the decimal point. For
// fractions it is minus the count of zeros right after the point.
func IntegerDigits(d decimal.Decimal) int {
	if d.IsZero() {
		return 0
	}
	return d.NumDigits() + int(d.Exponent())
}

// FormatAmount renders d with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

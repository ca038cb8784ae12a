package lineitems

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"":        "0",
		"abc":     "0",
		"-":       "0",
		".":       "0",
		"12":      "12",
		"  7.25":  "7.25",
		"3.5kg":   "3.5",
		".5":      "0.5",
		"5.":      "5",
		"-2.75":   "-2.75",
		"+4":      "4",
		"1e3":     "1000",
		"2.5E-1":  "0.25",
		"1e":      "1",
		"1,000":   "1",
		"0012.10": "12.1",
		"1e29":    "100000000000000000000000000000",
		"1e400":   "0",
		"1e-400":  "0",
		"-9e31":   "0",
	}
	for raw, want := range cases {
		got := ParseAmount(raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "ParseAmount(%q) = %s, want %s", raw, got, want)
	}
}

func TestParseAmountBoundsMagnitude(t *testing.T) {
	assert.True(t, ParseAmount("1e999999999").IsZero())
	assert.True(t, ParseAmount("9"+strings.Repeat("9", MaxAmountDigits)).IsZero())
	assert.Equal(t, MaxAmountDigits, IntegerDigits(ParseAmount(strings.Repeat("9", MaxAmountDigits))))
	assert.True(t, ParseAmount("5e-999999999").IsZero())
	assert.Equal(t, "0.00", FormatAmount(ParseAmount("0."+strings.Repeat("0", 40)+"1")))
	assert.Equal(t, "0.12", FormatAmount(ParseAmount("0.1234567890123456789012345678901234")))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(decimal.Zero))
	assert.Equal(t, "36.00", FormatAmount(decimal.NewFromInt(36)))
	assert.Equal(t, "0.13", FormatAmount(decimal.RequireFromString("0.125")))
	assert.Equal(t, "-1.50", FormatAmount(decimal.RequireFromString("-1.499")))
}

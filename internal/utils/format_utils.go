package utils

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const ethDecimals = 18

var minVisibleEth = decimal.New(1, -4)

// FormatUnitsTrim converts a wei-like amount to a human string:
// - divides by 10^decimals
// - trims to maxFrac decimal places
// - removes trailing zeros
//
// Examples:
//
//	amount=1234500000000000000, decimals=18 -> "1.2345"
//	amount=1000000000000000000, decimals=18 -> "1"
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	d := decimal.NewFromBigInt(amount, -int32(decimals))
	if maxFrac < 0 {
		maxFrac = 0
	}
	return d.Truncate(int32(maxFrac)).String()
}

// FormatWeiToDecimal renders a wei amount the way prices are shown to the
// user. Two amounts whose rendering is equal are treated as the same price.
//
//	<= 0       -> "0.00"
//	< 0.0001   -> "<0.0001"
//	< 1        -> rounded to 3 decimals, trailing zeros removed
//	otherwise  -> 2 decimals with thousands separators
func FormatWeiToDecimal(wei *big.Int) string {
	if wei == nil || wei.Sign() <= 0 {
		return "0.00"
	}

	d := decimal.NewFromBigInt(wei, -ethDecimals)
	if d.LessThan(minVisibleEth) {
		return "<0.0001"
	}
	if d.LessThan(decimal.NewFromInt(1)) {
		return d.Round(3).String()
	}

	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return groupThousands(intPart) + "." + frac
}

// ParseEther parses a decimal ETH amount ("1.05") into wei.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return d.Shift(ethDecimals).BigInt(), nil
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

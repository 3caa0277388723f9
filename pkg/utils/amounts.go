package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// USDCDecimals is the base-unit precision of the stablecoin.
const USDCDecimals = 6

var baseUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(USDCDecimals), nil)

// ParseUSDC converts a human-entered decimal amount into token base units.
// Non-numeric or non-positive input yields zero; callers must refuse to
// submit a zero amount. All arithmetic is integer arithmetic.
func ParseUSDC(amount string) *big.Int {
	amount = strings.ReplaceAll(strings.TrimSpace(amount), ",", "")
	if amount == "" || strings.HasPrefix(amount, "-") {
		return new(big.Int)
	}

	whole := amount
	frac := ""
	if idx := strings.Index(amount, "."); idx >= 0 {
		whole = amount[:idx]
		frac = amount[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > USDCDecimals {
		frac = frac[:USDCDecimals]
	}
	// Pad the fraction out to base-unit precision
	frac = frac + strings.Repeat("0", USDCDecimals-len(frac))

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok || wholeInt.Sign() < 0 {
		return new(big.Int)
	}
	fracInt := big.NewInt(0)
	if frac != "" {
		fracInt, ok = new(big.Int).SetString(frac, 10)
		if !ok {
			return new(big.Int)
		}
	}

	result := new(big.Int).Mul(wholeInt, baseUnit)
	result.Add(result, fracInt)
	if result.Sign() <= 0 {
		return new(big.Int)
	}
	return result
}

// FormatUSDC renders a base-unit amount as a display string with two decimal
// places and thousands separators, e.g. 2500000 -> "2.50".
func FormatUSDC(amount *big.Int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0.00"
	}

	// Round to cents: half-up on the discarded sub-cent digits.
	centUnit := new(big.Int).Exp(big.NewInt(10), big.NewInt(USDCDecimals-2), nil)
	half := new(big.Int).Div(centUnit, big.NewInt(2))
	cents := new(big.Int).Add(amount, half)
	cents.Div(cents, centUnit)

	whole := new(big.Int)
	frac := new(big.Int)
	whole.DivMod(cents, big.NewInt(100), frac)

	return fmt.Sprintf("%s.%02d", groupThousands(whole.String()), frac.Int64())
}

// groupThousands inserts comma separators into a decimal digit string.
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

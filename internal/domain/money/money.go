// Package money holds the rounding rules applied to every monetary operation.
// Amounts are carried as decimals and rounded to cents after each step, half away from zero.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places every stored amount keeps
const Places = 2

// Zero is the canonical zero amount
var Zero = decimal.Zero

// Round rounds d to cents
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// FromFloat converts a float amount to cents
func FromFloat(f float64) decimal.Decimal {
	return Round(decimal.NewFromFloat(f))
}

// FromString parses a textual amount, returning zero when it is not a number
func FromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero
	}
	return Round(d)
}

// Add sums values left to right, rounding after each addition
func Add(values ...decimal.Decimal) decimal.Decimal {
	total := Zero
	for _, v := range values {
		total = Round(total.Add(v))
	}
	return total
}

// Sub returns a - b rounded to cents
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return Round(a.Sub(b))
}

// FirstNonZero returns the first value different from zero, or zero
func FirstNonZero(values ...decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return Zero
}

package core

import (
	"fmt"
	"strconv"
)

// Money is a monetary amount in minor units of some currency.
type Money struct {
	Cents int64
}

// FormatAmount renders minor units as a decimal string with the currency
// name appended, e.g. 12345 + "UAH" -> "123.45 UAH".
func FormatAmount(cents int64, currencyName string) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(units, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		s = "-" + s
	}
	if currencyName == "" {
		return s
	}
	return s + " " + currencyName
}

// Units returns the major-unit value as float64 for display purposes only.
// Calculations must stay in cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

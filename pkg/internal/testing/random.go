package testing

import (
	"math/rand"

	"github.com/shopspring/decimal"
)

// RandomAmount returns a positive amount with two decimal places
// in a range 0.01 - 9999.99
func RandomAmount() decimal.Decimal {
	return decimal.New(1+rand.Int63n(999999), -2)
}

package core

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 9 // 9 decimal places for prices (gwei-level precision)

// MeetsReserve returns true if the bid price meets or exceeds the reserve.
// Uses decimal arithmetic with monetaryPrecision to avoid floating-point errors.
func MeetsReserve(bidPrice, reserve decimal.Decimal) bool {
	return bidPrice.Round(monetaryPrecision).GreaterThanOrEqual(reserve.Round(monetaryPrecision))
}

// Outbids returns true if price strictly exceeds other at monetaryPrecision.
// An equal price never outbids: the ledger would have no unambiguous way to
// rank the two entries against each other for eviction.
func Outbids(price, other decimal.Decimal) bool {
	return price.Round(monetaryPrecision).GreaterThan(other.Round(monetaryPrecision))
}

// SamePrice returns true if the two prices are equal at monetaryPrecision.
func SamePrice(a, b decimal.Decimal) bool {
	return a.Round(monetaryPrecision).Equal(b.Round(monetaryPrecision))
}

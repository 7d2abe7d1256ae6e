package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAsset selects the rail an auction settles in. The zero value is
// the native currency; a non-empty Token is the address of a fungible
// token whose transfers the engine pulls via pre-approved allowance.
type PaymentAsset struct {
	Token string `json:"token,omitempty"`
}

// NativePayment returns the payment asset for native-currency auctions.
func NativePayment() PaymentAsset {
	return PaymentAsset{}
}

// TokenPayment returns the payment asset for auctions settled in the
// fungible token at the given address.
func TokenPayment(token string) PaymentAsset {
	return PaymentAsset{Token: token}
}

// IsNative reports whether the asset denotes the native currency.
func (p PaymentAsset) IsNative() bool {
	return p.Token == ""
}

// Auction is the immutable per-auction record. All mutable state lives in
// the BidLedger and SettlementState owned by the Registry.
type Auction struct {
	ID            uint64          `json:"id"`
	Seller        string          `json:"seller"`
	Payment       PaymentAsset    `json:"payment"`
	PrizeContract string          `json:"prize_contract"`
	UnitID        uint64          `json:"unit_id"`
	Reserve       decimal.Decimal `json:"reserve"`
	Capacity      int             `json:"capacity"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
}

// Status is the time-derived lifecycle phase of an auction.
type Status int

const (
	// StatusPending: before the start time, bids rejected.
	StatusPending Status = iota
	// StatusActive: within [start, end), bids accepted.
	StatusActive
	// StatusEnded: at or past the end time, claims and withdrawals open.
	// An auction stays Ended forever; settlement is tracked per entity.
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// StatusAt derives the lifecycle phase from the supplied time. Transitions
// are never pushed by a scheduler; every operation evaluates this lazily.
func (a *Auction) StatusAt(now time.Time) Status {
	if now.Before(a.StartTime) {
		return StatusPending
	}
	if now.Before(a.EndTime) {
		return StatusActive
	}
	return StatusEnded
}

// BidEntry is one active bid as seen in a ledger snapshot.
type BidEntry struct {
	Bidder string          `json:"bidder"`
	Price  decimal.Decimal `json:"price"`
}

// Clock supplies the engine's notion of current time. The real ledger
// environment provides it; tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionParams carries everything CreateAuction needs besides the seller.
// The shape mirrors the engine's canonical creation call: payment asset,
// prize contract + unit, reserve, capacity, and the absolute time window.
type AuctionParams struct {
	Payment       PaymentAsset
	PrizeContract string
	UnitID        uint64
	Reserve       decimal.Decimal
	Capacity      int
	StartTime     time.Time
	EndTime       time.Time
}

// validate checks the static invariants of an auction record: at least one
// slot, a forward time window, a non-negative reserve, and real asset and
// seller references. Time-relative checks are deliberately absent; an
// auction may be created already inside or past its window.
func (p AuctionParams) validate(seller string) error {
	if seller == "" {
		return fmt.Errorf("%w: empty seller", ErrInvalidParameters)
	}
	if p.PrizeContract == "" {
		return fmt.Errorf("%w: empty prize contract", ErrInvalidParameters)
	}
	if p.Capacity < 1 {
		return fmt.Errorf("%w: capacity %d, need at least 1", ErrInvalidParameters, p.Capacity)
	}
	if !p.StartTime.Before(p.EndTime) {
		return fmt.Errorf("%w: start %s not before end %s", ErrInvalidParameters,
			p.StartTime.Format(time.RFC3339), p.EndTime.Format(time.RFC3339))
	}
	if p.Reserve.IsNegative() {
		return fmt.Errorf("%w: negative reserve %s", ErrInvalidParameters, p.Reserve)
	}
	return nil
}

// checkBiddable returns the error the bid path reports for an auction
// outside its active window.
func checkBiddable(a *Auction, now time.Time) error {
	switch a.StatusAt(now) {
	case StatusPending:
		return fmt.Errorf("%w: auction %d opens at %s", ErrNotStarted, a.ID, a.StartTime.Format(time.RFC3339))
	case StatusEnded:
		return fmt.Errorf("%w: auction %d closed at %s", ErrAuctionOver, a.ID, a.EndTime.Format(time.RFC3339))
	default:
		return nil
	}
}

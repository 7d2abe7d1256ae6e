package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SettlementState tracks the post-end phase of one auction. Created lazily
// on the first settlement-relevant call and append-only from then on:
// claimed flags only ever flip from unset to set, proceeds only accrue or
// move wholesale to the seller.
type SettlementState struct {
	claimed   map[string]bool
	proceeds  decimal.Decimal // accrued from claimed bids, not yet withdrawn
	withdrawn decimal.Decimal // cumulative total moved to the seller
}

func newSettlementState() *SettlementState {
	return &SettlementState{
		claimed:   make(map[string]bool),
		proceeds:  decimal.Zero,
		withdrawn: decimal.Zero,
	}
}

// Claimed reports whether bidder has already collected their unit.
func (s *SettlementState) Claimed(bidder string) bool {
	return s.claimed[bidder]
}

// Proceeds returns the withdrawable balance accrued so far.
func (s *SettlementState) Proceeds() decimal.Decimal { return s.proceeds }

// Withdrawn returns the cumulative amount moved to the seller.
func (s *SettlementState) Withdrawn() decimal.Decimal { return s.withdrawn }

// claim delivers one unit to a winning bidder. The unit transfer happens
// before the claimed flag is set: a failed payout leaves the claim
// retryable instead of stranding the unit behind a set flag. The caller
// holds the auction lock, so no observer can race the two steps.
func (s *SettlementState) claim(a *Auction, entry BidEntry, prize PrizeProvider) error {
	if s.claimed[entry.Bidder] {
		return fmt.Errorf("%w: %s on auction %d", ErrAlreadyClaimed, entry.Bidder, a.ID)
	}
	if err := prize.TransferUnits(a.PrizeContract, a.Seller, entry.Bidder, a.UnitID, 1); err != nil {
		return fmt.Errorf("%w: unit payout to %s: %v", ErrTransferFailed, entry.Bidder, err)
	}
	s.claimed[entry.Bidder] = true
	s.proceeds = s.proceeds.Add(entry.Price)
	return nil
}

// withdraw moves the full accrued balance to the seller and zeroes it.
// A zero balance is a successful no-op: repeated withdrawals simply move
// nothing, they never fail.
func (s *SettlementState) withdraw(seller string, escrow *escrowAdapter) (decimal.Decimal, string, error) {
	amount := s.proceeds
	if amount.IsZero() {
		return decimal.Zero, "", nil
	}
	receipt, err := escrow.Refund(seller, amount)
	if err != nil {
		return decimal.Zero, "", err
	}
	s.proceeds = decimal.Zero
	s.withdrawn = s.withdrawn.Add(amount)
	return amount, receipt, nil
}

package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BidLedger is the bounded top-N list of active bids for one auction.
// Entries are kept strictly descending by price in a fixed-capacity slot
// array; every entry is currently escrowed, and any entry removed has been
// fully refunded before or atomically with removal. Callers (the Registry)
// serialize all mutations per auction; the ledger itself holds no lock.
type BidLedger struct {
	capacity int
	reserve  decimal.Decimal
	escrow   *escrowAdapter
	slots    []BidEntry // len(slots) <= capacity, descending by price
}

// placeOutcome reports what a successful PlaceBid did, for the journal.
type placeOutcome struct {
	DepositReceipt string
	Evicted        *BidEntry // nil when a free slot was used
	RefundReceipt  string
}

// NewBidLedger creates an empty ledger for an auction with the given
// capacity and reserve. Capacity is expected small; the slot array avoids
// any pointer-based tree.
func NewBidLedger(capacity int, reserve decimal.Decimal, rail PaymentRail) *BidLedger {
	return &BidLedger{
		capacity: capacity,
		reserve:  reserve,
		escrow:   &escrowAdapter{rail: rail},
		slots:    make([]BidEntry, 0, capacity),
	}
}

// PlaceBid inserts a new competing bid, evicting and refunding the lowest
// active bid when the ledger is full. All validation happens before the
// deposit is taken, so a rejected bid never moves funds. On an eviction
// the deposit is taken first and the refund second; a failed refund
// unwinds the deposit and leaves the ledger untouched.
func (l *BidLedger) PlaceBid(bidder string, amount decimal.Decimal) (placeOutcome, error) {
	if !MeetsReserve(amount, l.reserve) {
		return placeOutcome{}, fmt.Errorf("%w: %s < reserve %s", ErrBelowReserve, amount, l.reserve)
	}
	for i := range l.slots {
		if l.slots[i].Bidder == bidder {
			return placeOutcome{}, fmt.Errorf("%w: bidder %s already holds an active bid, use IncreaseBid", ErrInvalidParameters, bidder)
		}
		// Two equal-priced active entries could not be unambiguously
		// ranked against each other for eviction.
		if SamePrice(amount, l.slots[i].Price) {
			return placeOutcome{}, fmt.Errorf("%w: %s equals an active bid", ErrBidTooLow, amount)
		}
	}

	if len(l.slots) < l.capacity {
		receipt, err := l.escrow.Deposit(bidder, amount)
		if err != nil {
			return placeOutcome{}, err
		}
		l.insert(BidEntry{Bidder: bidder, Price: amount})
		return placeOutcome{DepositReceipt: receipt}, nil
	}

	lowest := l.slots[len(l.slots)-1]
	if !Outbids(amount, lowest.Price) {
		return placeOutcome{}, fmt.Errorf("%w: %s does not exceed lowest active bid %s", ErrBidTooLow, amount, lowest.Price)
	}

	depositReceipt, err := l.escrow.Deposit(bidder, amount)
	if err != nil {
		return placeOutcome{}, err
	}
	refundReceipt, err := l.escrow.Refund(lowest.Bidder, lowest.Price)
	if err != nil {
		// Unwind the deposit so the failed operation leaves no partial
		// state. The engine holds the funds it just pulled, so this
		// compensating push cannot fail for lack of balance.
		if _, unwindErr := l.escrow.Refund(bidder, amount); unwindErr != nil {
			return placeOutcome{}, fmt.Errorf("%w; deposit unwind also failed: %v", err, unwindErr)
		}
		return placeOutcome{}, err
	}

	l.slots = l.slots[:len(l.slots)-1]
	l.insert(BidEntry{Bidder: bidder, Price: amount})
	return placeOutcome{
		DepositReceipt: depositReceipt,
		Evicted:        &lowest,
		RefundReceipt:  refundReceipt,
	}, nil
}

// IncreaseBid raises an existing active bid by added, depositing only the
// delta. The entry re-sorts to its new position; it is never evicted by
// this operation and no refund is ever triggered.
func (l *BidLedger) IncreaseBid(bidder string, added decimal.Decimal) (BidEntry, string, error) {
	if !added.IsPositive() {
		return BidEntry{}, "", fmt.Errorf("%w: increase amount must be positive", ErrInvalidParameters)
	}
	idx := -1
	for i := range l.slots {
		if l.slots[i].Bidder == bidder {
			idx = i
			break
		}
	}
	if idx < 0 {
		return BidEntry{}, "", fmt.Errorf("%w: %s", ErrNoActiveBid, bidder)
	}

	receipt, err := l.escrow.Deposit(bidder, added)
	if err != nil {
		return BidEntry{}, "", err
	}

	updated := BidEntry{Bidder: bidder, Price: l.slots[idx].Price.Add(added)}
	l.slots = append(l.slots[:idx], l.slots[idx+1:]...)
	l.insert(updated)
	return updated, receipt, nil
}

// Snapshot returns the active bids in strictly descending price order.
// Read-only; the returned slice is the caller's to keep.
func (l *BidLedger) Snapshot() []BidEntry {
	out := make([]BidEntry, len(l.slots))
	copy(out, l.slots)
	return out
}

// Len returns the number of active bids.
func (l *BidLedger) Len() int { return len(l.slots) }

// EntryFor returns the active entry for bidder, or false if none.
func (l *BidLedger) EntryFor(bidder string) (BidEntry, bool) {
	for i := range l.slots {
		if l.slots[i].Bidder == bidder {
			return l.slots[i], true
		}
	}
	return BidEntry{}, false
}

// insert places e at its sorted position. An entry whose price equals an
// existing one (only reachable via IncreaseBid) ranks below it, keeping
// the earlier entry's standing.
func (l *BidLedger) insert(e BidEntry) {
	pos := len(l.slots)
	for i := range l.slots {
		if Outbids(e.Price, l.slots[i].Price) {
			pos = i
			break
		}
	}
	l.slots = append(l.slots, BidEntry{})
	copy(l.slots[pos+1:], l.slots[pos:])
	l.slots[pos] = e
}

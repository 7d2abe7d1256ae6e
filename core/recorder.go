package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recorder receives an append-only narration of everything the engine
// does, for audit and offline inspection. Recording is best-effort: the
// Registry logs a recorder error and carries on, it never unwinds a money
// movement because the journal is unavailable.
type Recorder interface {
	AuctionCreated(a Auction, at time.Time) error
	BidPlaced(auctionID uint64, bidder string, price decimal.Decimal, receipt string, at time.Time) error
	BidEvicted(auctionID uint64, bidder string, refund decimal.Decimal, receipt string, at time.Time) error
	BidIncreased(auctionID uint64, bidder string, newPrice decimal.Decimal, receipt string, at time.Time) error
	RewardClaimed(auctionID uint64, bidder string, price decimal.Decimal, at time.Time) error
	ProceedsWithdrawn(auctionID uint64, seller string, amount decimal.Decimal, receipt string, at time.Time) error
	FinalSnapshot(auctionID uint64, entries []BidEntry, at time.Time) error
}

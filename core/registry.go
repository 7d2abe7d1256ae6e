package core

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Registry owns every Auction, BidLedger, and SettlementState instance and
// is the only surface callers touch. It assigns identifiers monotonically
// and serializes all mutating operations per auction: insertion, eviction,
// and refund are observed as one atomic unit, and no snapshot can see a
// ledger mid-eviction. Operations on different auctions proceed
// independently.
type Registry struct {
	clock    Clock
	rails    RailSelector
	prize    PrizeProvider
	recorder Recorder
	operator string // identity the seller must approve on the prize provider

	mu       sync.Mutex
	nextID   uint64
	auctions map[uint64]*auctionState
}

type auctionState struct {
	mu         sync.Mutex
	auction    Auction
	ledger     *BidLedger
	settlement *SettlementState // lazily created at first settlement call
}

// Config wires the Registry's external collaborators.
type Config struct {
	// Clock supplies current time; defaults to the system clock.
	Clock Clock
	// Rails resolves each auction's payment asset to a rail. Required.
	Rails RailSelector
	// Prize holds and transfers the auctioned units. Required.
	Prize PrizeProvider
	// Recorder journals engine activity. Optional.
	Recorder Recorder
	// Operator is the engine's identity on the prize provider.
	Operator string
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Rails == nil {
		return nil, fmt.Errorf("%w: nil rail selector", ErrInvalidParameters)
	}
	if cfg.Prize == nil {
		return nil, fmt.Errorf("%w: nil prize provider", ErrInvalidParameters)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Registry{
		clock:    clock,
		rails:    cfg.Rails,
		prize:    cfg.Prize,
		recorder: cfg.Recorder,
		operator: cfg.Operator,
		auctions: make(map[uint64]*auctionState),
	}, nil
}

// CreateAuction validates the parameters, checks the seller has approved
// the engine to move the auctioned units, and allocates the auction record
// with an empty bid ledger. Returns the new auction's identifier.
func (r *Registry) CreateAuction(seller string, params AuctionParams) (uint64, error) {
	if err := params.validate(seller); err != nil {
		return 0, err
	}
	if !r.prize.IsApprovedOperator(params.PrizeContract, seller, r.operator) {
		return 0, fmt.Errorf("%w: seller %s has not approved the engine on %s",
			ErrInvalidParameters, seller, params.PrizeContract)
	}
	rail, err := r.rails.RailFor(params.Payment)
	if err != nil {
		return 0, fmt.Errorf("%w: no rail for payment asset %q: %v", ErrInvalidParameters, params.Payment.Token, err)
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	auction := Auction{
		ID:            id,
		Seller:        seller,
		Payment:       params.Payment,
		PrizeContract: params.PrizeContract,
		UnitID:        params.UnitID,
		Reserve:       params.Reserve,
		Capacity:      params.Capacity,
		StartTime:     params.StartTime,
		EndTime:       params.EndTime,
	}
	r.auctions[id] = &auctionState{
		auction: auction,
		ledger:  NewBidLedger(params.Capacity, params.Reserve, rail),
	}
	r.mu.Unlock()

	log.Printf("INFO: Auction %d created by %s: %d unit(s) of %s/%d, reserve %s, window [%s, %s)",
		id, seller, params.Capacity, params.PrizeContract, params.UnitID, params.Reserve,
		params.StartTime.Format(time.RFC3339), params.EndTime.Format(time.RFC3339))
	r.record(func(rec Recorder) error { return rec.AuctionCreated(auction, r.clock.Now()) })
	return id, nil
}

// GetAuction returns the immutable auction record.
func (r *Registry) GetAuction(auctionID uint64) (Auction, error) {
	st, err := r.lookup(auctionID)
	if err != nil {
		return Auction{}, err
	}
	return st.auction, nil
}

// PlaceBid submits a new competing bid. The deposit is only taken once the
// bid is known to rank; a bid that fails validation moves no funds.
func (r *Registry) PlaceBid(auctionID uint64, bidder string, amount decimal.Decimal) error {
	st, err := r.lookup(auctionID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	now := r.clock.Now()
	if err := checkBiddable(&st.auction, now); err != nil {
		return err
	}
	outcome, err := st.ledger.PlaceBid(bidder, amount)
	if err != nil {
		return err
	}

	log.Printf("INFO: Auction %d: bid %s by %s accepted", auctionID, amount, bidder)
	r.record(func(rec Recorder) error {
		return rec.BidPlaced(auctionID, bidder, amount, outcome.DepositReceipt, now)
	})
	if outcome.Evicted != nil {
		log.Printf("INFO: Auction %d: bid %s by %s evicted and refunded",
			auctionID, outcome.Evicted.Price, outcome.Evicted.Bidder)
		r.record(func(rec Recorder) error {
			return rec.BidEvicted(auctionID, outcome.Evicted.Bidder, outcome.Evicted.Price, outcome.RefundReceipt, now)
		})
	}
	return nil
}

// IncreaseBid raises the caller's active bid by added, depositing only the
// delta. The bid re-sorts; the active entry count never changes.
func (r *Registry) IncreaseBid(auctionID uint64, bidder string, added decimal.Decimal) error {
	st, err := r.lookup(auctionID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	now := r.clock.Now()
	if err := checkBiddable(&st.auction, now); err != nil {
		return err
	}
	updated, receipt, err := st.ledger.IncreaseBid(bidder, added)
	if err != nil {
		return err
	}

	log.Printf("INFO: Auction %d: %s increased bid to %s", auctionID, bidder, updated.Price)
	r.record(func(rec Recorder) error {
		return rec.BidIncreased(auctionID, bidder, updated.Price, receipt, now)
	})
	return nil
}

// Snapshot returns the active bids in descending price order. Read-only.
func (r *Registry) Snapshot(auctionID uint64) ([]BidEntry, error) {
	st, err := r.lookup(auctionID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ledger.Snapshot(), nil
}

// Claim delivers one purchased unit to a winning bidder after the auction
// has ended. At most one claim per (auction, bidder) ever succeeds; the
// bid's price becomes withdrawable by the seller on success.
func (r *Registry) Claim(auctionID uint64, bidder string) error {
	st, err := r.lookup(auctionID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	now := r.clock.Now()
	if st.auction.StatusAt(now) != StatusEnded {
		return fmt.Errorf("%w: auction %d runs until %s", ErrNotEnded, auctionID,
			st.auction.EndTime.Format(time.RFC3339))
	}
	entry, ok := st.ledger.EntryFor(bidder)
	if !ok {
		return fmt.Errorf("%w: %s on auction %d", ErrNotAWinner, bidder, auctionID)
	}
	settlement := r.settlementFor(st, now)
	if err := settlement.claim(&st.auction, entry, r.prize); err != nil {
		return err
	}

	log.Printf("INFO: Auction %d: %s claimed unit %d for %s", auctionID, bidder, st.auction.UnitID, entry.Price)
	r.record(func(rec Recorder) error {
		return rec.RewardClaimed(auctionID, bidder, entry.Price, now)
	})
	return nil
}

// WithdrawProceeds moves the seller's full accrued, not-yet-withdrawn
// proceeds in one transfer and returns the amount moved. Safe to call
// repeatedly; later calls move zero.
func (r *Registry) WithdrawProceeds(auctionID uint64, caller string) (decimal.Decimal, error) {
	st, err := r.lookup(auctionID)
	if err != nil {
		return decimal.Zero, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if caller != st.auction.Seller {
		return decimal.Zero, fmt.Errorf("%w: %s did not create auction %d", ErrNotSeller, caller, auctionID)
	}
	now := r.clock.Now()
	if st.auction.StatusAt(now) != StatusEnded {
		return decimal.Zero, fmt.Errorf("%w: auction %d runs until %s", ErrNotEnded, auctionID,
			st.auction.EndTime.Format(time.RFC3339))
	}
	settlement := r.settlementFor(st, now)
	amount, receipt, err := settlement.withdraw(caller, st.ledger.escrow)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsZero() {
		return decimal.Zero, nil
	}

	log.Printf("INFO: Auction %d: seller %s withdrew proceeds %s", auctionID, caller, amount)
	r.record(func(rec Recorder) error {
		return rec.ProceedsWithdrawn(auctionID, caller, amount, receipt, now)
	})
	return amount, nil
}

// SettlementOf returns a read-only view of an auction's settlement state:
// accrued proceeds, cumulative withdrawn, and whether bidder has claimed.
func (r *Registry) SettlementOf(auctionID uint64, bidder string) (proceeds, withdrawn decimal.Decimal, claimed bool, err error) {
	st, lookupErr := r.lookup(auctionID)
	if lookupErr != nil {
		return decimal.Zero, decimal.Zero, false, lookupErr
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.settlement == nil {
		return decimal.Zero, decimal.Zero, false, nil
	}
	return st.settlement.Proceeds(), st.settlement.Withdrawn(), st.settlement.Claimed(bidder), nil
}

func (r *Registry) lookup(auctionID uint64) (*auctionState, error) {
	r.mu.Lock()
	st, ok := r.auctions[auctionID]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrAuctionNotFound, auctionID)
	}
	return st, nil
}

// settlementFor lazily creates the settlement state the first time the
// ended auction is touched, archiving the final ledger snapshot as it
// does. Caller holds st.mu.
func (r *Registry) settlementFor(st *auctionState, now time.Time) *SettlementState {
	if st.settlement == nil {
		st.settlement = newSettlementState()
		final := st.ledger.Snapshot()
		r.record(func(rec Recorder) error {
			return rec.FinalSnapshot(st.auction.ID, final, now)
		})
	}
	return st.settlement
}

// record invokes fn against the configured recorder, if any. Journal
// failures are logged and swallowed; they never unwind engine state.
func (r *Registry) record(fn func(Recorder) error) {
	if r.recorder == nil {
		return
	}
	if err := fn(r.recorder); err != nil {
		log.Printf("ERROR: Failed to journal engine event: %v", err)
	}
}

package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// fakeRail records every transfer and can be told to fail pulls, or pushes
// to specific payees.
type fakeRail struct {
	pulled     map[string]decimal.Decimal
	pushed     map[string]decimal.Decimal
	pullErr    error
	pushErrFor map[string]error
}

func newFakeRail() *fakeRail {
	return &fakeRail{
		pulled:     make(map[string]decimal.Decimal),
		pushed:     make(map[string]decimal.Decimal),
		pushErrFor: make(map[string]error),
	}
}

func (f *fakeRail) Pull(payer string, amount decimal.Decimal) (string, error) {
	if f.pullErr != nil {
		return "", f.pullErr
	}
	f.pulled[payer] = f.pulled[payer].Add(amount)
	return fmt.Sprintf("pull-%s-%s", payer, amount), nil
}

func (f *fakeRail) Push(payee string, amount decimal.Decimal) (string, error) {
	if err := f.pushErrFor[payee]; err != nil {
		return "", err
	}
	f.pushed[payee] = f.pushed[payee].Add(amount)
	return fmt.Sprintf("push-%s-%s", payee, amount), nil
}

// escrowed returns net value held for an account: pulled minus pushed.
func (f *fakeRail) escrowed(account string) decimal.Decimal {
	return f.pulled[account].Sub(f.pushed[account])
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// checkSnapshot verifies bidders and prices in order.
func checkSnapshot(t *testing.T, got []BidEntry, want ...BidEntry) {
	t.Helper()
	if !check.Equal(t, len(want), len(got)) {
		return
	}
	for i := range want {
		check.Equal(t, want[i].Bidder, got[i].Bidder)
		check.True(t, want[i].Price.Equal(got[i].Price))
	}
}

func TestBidLedger_InsertsSortedDescending(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(3, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_b", dec("0.5"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_c", dec("2.0"))
	assert.Nil(t, err)

	checkSnapshot(t, ledger.Snapshot(),
		BidEntry{Bidder: "bidder_c", Price: dec("2.0")},
		BidEntry{Bidder: "bidder_a", Price: dec("1.0")},
		BidEntry{Bidder: "bidder_b", Price: dec("0.5")},
	)
	check.Equal(t, 3, ledger.Len())
}

func TestBidLedger_NeverExceedsCapacity(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_b", dec("2.0"))
	assert.Nil(t, err)
	check.Equal(t, 2, ledger.Len())

	// Each further winning bid evicts one, so the bound holds throughout
	for i := 3; i <= 6; i++ {
		_, err = ledger.PlaceBid(fmt.Sprintf("bidder_%d", i), decimal.NewFromInt(int64(i)))
		assert.Nil(t, err)
		check.Equal(t, 2, ledger.Len())
	}
}

func TestBidLedger_BelowReserveRejected(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, dec("1.0"), rail)

	_, err := ledger.PlaceBid("bidder_a", dec("0.99"))
	check.True(t, errors.Is(err, ErrBelowReserve))
	check.Equal(t, 0, ledger.Len())
	// No deposit was attempted
	check.Equal(t, 0, len(rail.pulled))

	// Exactly the reserve is acceptable
	_, err = ledger.PlaceBid("bidder_a", dec("1.0"))
	check.Nil(t, err)
}

func TestBidLedger_EvictionRefundsExactEscrow(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_b", dec("0.5"))
	assert.Nil(t, err)

	outcome, err := ledger.PlaceBid("bidder_c", dec("2.0"))
	assert.Nil(t, err)

	// bidder_b was lowest: evicted and refunded their full escrowed amount
	assert.True(t, outcome.Evicted != nil)
	check.Equal(t, "bidder_b", outcome.Evicted.Bidder)
	check.True(t, rail.pushed["bidder_b"].Equal(dec("0.5")))
	check.True(t, rail.escrowed("bidder_b").IsZero())

	checkSnapshot(t, ledger.Snapshot(),
		BidEntry{Bidder: "bidder_c", Price: dec("2.0")},
		BidEntry{Bidder: "bidder_a", Price: dec("1.0")},
	)
}

func TestBidLedger_BidTooLowLeavesEverythingUntouched(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_b", dec("2.0"))
	assert.Nil(t, err)

	// Lower than the lowest active bid
	_, err = ledger.PlaceBid("bidder_c", dec("0.9"))
	check.True(t, errors.Is(err, ErrBidTooLow))

	// Equal to the lowest active bid: cannot unambiguously outrank it
	_, err = ledger.PlaceBid("bidder_c", dec("1.0"))
	check.True(t, errors.Is(err, ErrBidTooLow))

	checkSnapshot(t, ledger.Snapshot(),
		BidEntry{Bidder: "bidder_b", Price: dec("2.0")},
		BidEntry{Bidder: "bidder_a", Price: dec("1.0")},
	)
	// The rejected bidder's funds were never touched
	check.True(t, rail.pulled["bidder_c"].IsZero())
	check.Equal(t, 0, len(rail.pushed))
}

func TestBidLedger_EqualPriceRejectedEvenWithFreeSlots(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(3, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.5"))
	assert.Nil(t, err)

	_, err = ledger.PlaceBid("bidder_b", dec("1.5"))
	check.True(t, errors.Is(err, ErrBidTooLow))
	check.Equal(t, 1, ledger.Len())
}

func TestBidLedger_SecondBidFromActiveBidderRejected(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(3, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)

	_, err = ledger.PlaceBid("bidder_a", dec("2.0"))
	check.True(t, errors.Is(err, ErrInvalidParameters))
	check.Equal(t, 1, ledger.Len())
	check.True(t, rail.pulled["bidder_a"].Equal(dec("1.0")))
}

func TestBidLedger_FailedDepositTakesNothing(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(1, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)

	rail.pullErr = errors.New("insufficient balance")
	_, err = ledger.PlaceBid("bidder_b", dec("2.0"))
	check.True(t, errors.Is(err, ErrTransferFailed))

	// The would-be evicted bid is still active and still escrowed
	checkSnapshot(t, ledger.Snapshot(), BidEntry{Bidder: "bidder_a", Price: dec("1.0")})
	check.True(t, rail.escrowed("bidder_a").Equal(dec("1.0")))
}

func TestBidLedger_FailedRefundAbortsEviction(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(1, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)

	rail.pushErrFor["bidder_a"] = errors.New("refund rejected")
	_, err = ledger.PlaceBid("bidder_b", dec("2.0"))
	check.True(t, errors.Is(err, ErrTransferFailed))

	// bidder_a keeps the slot and the escrow; bidder_b's deposit was unwound
	checkSnapshot(t, ledger.Snapshot(), BidEntry{Bidder: "bidder_a", Price: dec("1.0")})
	check.True(t, rail.escrowed("bidder_a").Equal(dec("1.0")))
	check.True(t, rail.escrowed("bidder_b").IsZero())
}

func TestBidLedger_IncreaseDepositsOnlyTheDelta(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_c", dec("2.0"))
	assert.Nil(t, err)

	updated, _, err := ledger.IncreaseBid("bidder_a", dec("0.5"))
	assert.Nil(t, err)
	check.True(t, updated.Price.Equal(dec("1.5")))

	// Escrow grew by the delta, not the full new total
	check.True(t, rail.pulled["bidder_a"].Equal(dec("1.5")))
	// Entry count unchanged, nobody refunded
	check.Equal(t, 2, ledger.Len())
	check.Equal(t, 0, len(rail.pushed))
	checkSnapshot(t, ledger.Snapshot(),
		BidEntry{Bidder: "bidder_c", Price: dec("2.0")},
		BidEntry{Bidder: "bidder_a", Price: dec("1.5")},
	)
}

func TestBidLedger_IncreaseCanTakeTheLead(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)
	_, err = ledger.PlaceBid("bidder_c", dec("2.0"))
	assert.Nil(t, err)

	_, _, err = ledger.IncreaseBid("bidder_a", dec("2.5"))
	assert.Nil(t, err)
	checkSnapshot(t, ledger.Snapshot(),
		BidEntry{Bidder: "bidder_a", Price: dec("3.5")},
		BidEntry{Bidder: "bidder_c", Price: dec("2.0")},
	)
}

func TestBidLedger_IncreaseWithoutActiveBid(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, _, err := ledger.IncreaseBid("bidder_a", dec("0.5"))
	check.True(t, errors.Is(err, ErrNoActiveBid))
	check.Equal(t, 0, len(rail.pulled))
}

func TestBidLedger_IncreaseRequiresPositiveDelta(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)

	_, _, err = ledger.IncreaseBid("bidder_a", decimal.Zero)
	check.True(t, errors.Is(err, ErrInvalidParameters))
	_, _, err = ledger.IncreaseBid("bidder_a", dec("-0.5"))
	check.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestBidLedger_SnapshotIsACopy(t *testing.T) {
	rail := newFakeRail()
	ledger := NewBidLedger(2, decimal.Zero, rail)

	_, err := ledger.PlaceBid("bidder_a", dec("1.0"))
	assert.Nil(t, err)

	snap := ledger.Snapshot()
	snap[0].Bidder = "mutated"

	again := ledger.Snapshot()
	check.Equal(t, "bidder_a", again[0].Bidder)
}

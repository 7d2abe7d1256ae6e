package core

import (
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

func validParams(start, end time.Time) AuctionParams {
	return AuctionParams{
		Payment:       NativePayment(),
		PrizeContract: "0xprize",
		UnitID:        1,
		Reserve:       decimal.Zero,
		Capacity:      2,
		StartTime:     start,
		EndTime:       end,
	}
}

func TestAuctionParams_Validate(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	check.Nil(t, validParams(t0, t0.Add(time.Hour)).validate("seller"))

	// start >= end
	check.True(t, errors.Is(validParams(t0, t0).validate("seller"), ErrInvalidParameters))
	check.True(t, errors.Is(validParams(t0.Add(time.Hour), t0).validate("seller"), ErrInvalidParameters))

	// capacity < 1
	p := validParams(t0, t0.Add(time.Hour))
	p.Capacity = 0
	check.True(t, errors.Is(p.validate("seller"), ErrInvalidParameters))

	// empty asset / seller references
	p = validParams(t0, t0.Add(time.Hour))
	p.PrizeContract = ""
	check.True(t, errors.Is(p.validate("seller"), ErrInvalidParameters))
	check.True(t, errors.Is(validParams(t0, t0.Add(time.Hour)).validate(""), ErrInvalidParameters))

	// negative reserve
	p = validParams(t0, t0.Add(time.Hour))
	p.Reserve = decimal.NewFromInt(-1)
	check.True(t, errors.Is(p.validate("seller"), ErrInvalidParameters))
}

func TestAuction_StatusAt(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	a := &Auction{ID: 1, StartTime: start, EndTime: end}

	check.Equal(t, StatusPending, a.StatusAt(start.Add(-time.Second)))
	// The window is [start, end): inclusive start, exclusive end
	check.Equal(t, StatusActive, a.StatusAt(start))
	check.Equal(t, StatusActive, a.StatusAt(end.Add(-time.Second)))
	check.Equal(t, StatusEnded, a.StatusAt(end))
	check.Equal(t, StatusEnded, a.StatusAt(end.Add(24*time.Hour)))
}

func TestCheckBiddable(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	a := &Auction{ID: 1, StartTime: start, EndTime: end}

	check.True(t, errors.Is(checkBiddable(a, start.Add(-time.Minute)), ErrNotStarted))
	check.Nil(t, checkBiddable(a, start))
	check.True(t, errors.Is(checkBiddable(a, end), ErrAuctionOver))
}

func TestPaymentAsset_NativeSentinel(t *testing.T) {
	check.True(t, NativePayment().IsNative())
	check.False(t, TokenPayment("0xweth").IsNative())
	check.Equal(t, "0xweth", TokenPayment("0xweth").Token)
}

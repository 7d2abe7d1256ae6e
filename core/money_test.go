package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestMeetsReserve(t *testing.T) {
	check.True(t, MeetsReserve(dec("1.0"), dec("1.0")))
	check.True(t, MeetsReserve(dec("1.000000001"), dec("1.0")))
	check.False(t, MeetsReserve(dec("0.999999999"), dec("1.0")))

	// Differences below monetaryPrecision round away
	check.True(t, MeetsReserve(dec("0.9999999999"), dec("1.0")))
}

func TestOutbids(t *testing.T) {
	check.True(t, Outbids(dec("1.000000001"), dec("1.0")))
	check.False(t, Outbids(dec("1.0"), dec("1.0")))
	check.False(t, Outbids(dec("0.5"), dec("1.0")))

	// Sub-precision differences never outbid
	check.False(t, Outbids(dec("1.0000000001"), dec("1.0")))
}

func TestSamePrice(t *testing.T) {
	check.True(t, SamePrice(dec("1.5"), dec("1.50")))
	check.True(t, SamePrice(dec("1.5000000001"), dec("1.5")))
	check.False(t, SamePrice(dec("1.5"), dec("1.6")))
}

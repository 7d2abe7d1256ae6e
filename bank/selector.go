package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cloudx-io/nftauctionsale/core"
)

var ErrUnknownToken = errors.New("unknown payment token")

// Selector resolves each auction's payment asset to a concrete rail: the
// native bank for the sentinel native asset, a registered token ledger
// otherwise. Satisfies the engine's RailSelector contract.
type Selector struct {
	custody string
	native  *Native

	mu     sync.Mutex
	tokens map[string]*Token
}

// NewSelector creates a selector whose rails escrow on custody.
func NewSelector(native *Native, custody string) *Selector {
	return &Selector{
		custody: custody,
		native:  native,
		tokens:  make(map[string]*Token),
	}
}

// RegisterToken makes a token ledger available as a payment asset.
func (s *Selector) RegisterToken(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Address()] = token
}

// RailFor returns the rail for the given payment asset.
func (s *Selector) RailFor(asset core.PaymentAsset) (core.PaymentRail, error) {
	if asset.IsNative() {
		return NewNativeRail(s.native, s.custody), nil
	}
	s.mu.Lock()
	token, ok := s.tokens[asset.Token]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, asset.Token)
	}
	return NewTokenRail(token, s.custody), nil
}

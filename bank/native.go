// Package bank provides in-process stand-ins for the ledger environment
// the engine settles against: a native-currency bank, fungible token
// ledgers with pull-transfer allowances, and a prize vault holding the
// auctioned units. Each is safe for concurrent use; rails are shared
// across auctions while the engine only serializes per auction.
package bank

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrInvalidAmount         = errors.New("amount must be positive")
)

// Native models the native-currency side of the ledger: plain account
// balances with atomic transfers. Value "attached to a call" becomes a
// pull from the caller's balance here.
type Native struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
}

// NewNative creates an empty native bank.
func NewNative() *Native {
	return &Native{balances: make(map[string]decimal.Decimal)}
}

// Mint credits amount to account. Test/setup helper; the real environment
// has no mint.
func (n *Native) Mint(account string, amount decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[account] = n.balances[account].Add(amount)
}

// BalanceOf returns the current balance of account.
func (n *Native) BalanceOf(account string) decimal.Decimal {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.balances[account]
}

// Transfer atomically moves amount from one account to another. On error
// no value has moved.
func (n *Native) Transfer(from, to string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.balances[from].LessThan(amount) {
		return "", fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, n.balances[from], amount)
	}
	n.balances[from] = n.balances[from].Sub(amount)
	n.balances[to] = n.balances[to].Add(amount)
	return uuid.NewString(), nil
}

// NativeRail adapts the native bank to the engine's payment rail: pulls
// land on the engine's custody account, pushes leave it.
type NativeRail struct {
	bank    *Native
	custody string
}

// NewNativeRail creates a rail holding escrowed value on the custody
// account.
func NewNativeRail(bank *Native, custody string) *NativeRail {
	return &NativeRail{bank: bank, custody: custody}
}

func (r *NativeRail) Pull(payer string, amount decimal.Decimal) (string, error) {
	return r.bank.Transfer(payer, r.custody, amount)
}

func (r *NativeRail) Push(payee string, amount decimal.Decimal) (string, error) {
	return r.bank.Transfer(r.custody, payee, amount)
}

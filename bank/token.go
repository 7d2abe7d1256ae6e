package bank

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Token models one fungible payment token: balances plus the owner →
// spender allowances that make pull-transfers possible. Bidders approve
// the engine's custody account before bidding, exactly as they would an
// on-ledger token contract.
type Token struct {
	address string

	mu         sync.Mutex
	balances   map[string]decimal.Decimal
	allowances map[string]map[string]decimal.Decimal // owner -> spender -> remaining
}

// NewToken creates an empty token ledger identified by address.
func NewToken(address string) *Token {
	return &Token{
		address:    address,
		balances:   make(map[string]decimal.Decimal),
		allowances: make(map[string]map[string]decimal.Decimal),
	}
}

// Address returns the token's address.
func (t *Token) Address() string { return t.address }

// Mint credits amount to account. Test/setup helper.
func (t *Token) Mint(account string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = t.balances[account].Add(amount)
}

// BalanceOf returns the current balance of account.
func (t *Token) BalanceOf(account string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

// Approve sets spender's remaining allowance over owner's balance.
func (t *Token) Approve(owner, spender string, amount decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[string]decimal.Decimal)
	}
	t.allowances[owner][spender] = amount
}

// Allowance returns spender's remaining allowance over owner's balance.
func (t *Token) Allowance(owner, spender string) decimal.Decimal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[owner][spender]
}

// Transfer moves amount from the caller's own balance.
func (t *Token) Transfer(from, to string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves amount from owner to recipient on spender's
// authority, consuming allowance. Fails atomically when either the
// allowance or the balance falls short.
func (t *Token) TransferFrom(spender, owner, to string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining := t.allowances[owner][spender]
	if remaining.LessThan(amount) {
		return "", fmt.Errorf("%w: %s allows %s only %s, needs %s",
			ErrInsufficientAllowance, owner, spender, remaining, amount)
	}
	receipt, err := t.move(owner, to, amount)
	if err != nil {
		return "", err
	}
	t.allowances[owner][spender] = remaining.Sub(amount)
	return receipt, nil
}

// move is the locked transfer primitive.
func (t *Token) move(from, to string, amount decimal.Decimal) (string, error) {
	if t.balances[from].LessThan(amount) {
		return "", fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from, t.balances[from], amount)
	}
	t.balances[from] = t.balances[from].Sub(amount)
	t.balances[to] = t.balances[to].Add(amount)
	return uuid.NewString(), nil
}

// TokenRail adapts a token ledger to the engine's payment rail. Pulls use
// TransferFrom on the custody account's authority; pushes are plain
// transfers out of custody.
type TokenRail struct {
	token   *Token
	custody string
}

// NewTokenRail creates a rail holding escrowed tokens on the custody
// account.
func NewTokenRail(token *Token, custody string) *TokenRail {
	return &TokenRail{token: token, custody: custody}
}

func (r *TokenRail) Pull(payer string, amount decimal.Decimal) (string, error) {
	return r.token.TransferFrom(r.custody, payer, r.custody, amount)
}

func (r *TokenRail) Push(payee string, amount decimal.Decimal) (string, error) {
	return r.token.Transfer(r.custody, payee, amount)
}

package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentRail moves value between an external account and the engine's
// custody account. Both recognized rails satisfy it: the native rail moves
// value attached to a call, the token rail pulls a pre-approved allowance.
// Each call is atomic: on error no value has moved. Receipts identify the
// individual transfer for the audit journal.
type PaymentRail interface {
	// Pull moves amount from payer into engine custody.
	Pull(payer string, amount decimal.Decimal) (receipt string, err error)
	// Push moves amount from engine custody to payee.
	Push(payee string, amount decimal.Decimal) (receipt string, err error)
}

// RailSelector resolves the payment asset of an auction to a concrete rail.
type RailSelector interface {
	RailFor(asset PaymentAsset) (PaymentRail, error)
}

// PrizeProvider holds seller-owned balances of the auctioned units and
// transfers them on the engine's behalf once the seller has approved the
// engine as operator.
type PrizeProvider interface {
	IsApprovedOperator(contract, owner, operator string) bool
	TransferUnits(contract, from, to string, unitID, quantity uint64) error
}

// escrowAdapter is the single payment surface the bid ledger and the
// settlement path see. It never decides idempotency: the ledger's slot
// bookkeeping and the settlement claimed/withdrawn flags guarantee no
// logical event reaches the adapter twice.
type escrowAdapter struct {
	rail PaymentRail
}

// Deposit moves amount of the auction's payment asset from payer into
// engine custody. Fails atomically on insufficient balance or allowance.
func (e *escrowAdapter) Deposit(payer string, amount decimal.Decimal) (string, error) {
	receipt, err := e.rail.Pull(payer, amount)
	if err != nil {
		return "", fmt.Errorf("%w: deposit from %s: %v", ErrTransferFailed, payer, err)
	}
	return receipt, nil
}

// Refund returns previously escrowed amount to payee. A refund failure is
// never silent: the caller must fail its whole enclosing operation.
func (e *escrowAdapter) Refund(payee string, amount decimal.Decimal) (string, error) {
	receipt, err := e.rail.Push(payee, amount)
	if err != nil {
		return "", fmt.Errorf("%w: refund to %s: %v", ErrTransferFailed, payee, err)
	}
	return receipt, nil
}

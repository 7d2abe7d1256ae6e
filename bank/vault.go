package bank

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInsufficientUnits = errors.New("insufficient units")
	ErrNotApproved       = errors.New("operator not approved")
)

// Vault holds per-owner balances of non-fungible unit classes across prize
// contracts, with the operator approvals that let the engine move units a
// seller owns. Satisfies the engine's PrizeProvider contract.
type Vault struct {
	mu        sync.Mutex
	units     map[string]map[string]map[uint64]uint64 // contract -> owner -> unitID -> count
	operators map[string]map[string]map[string]bool   // contract -> owner -> operator -> approved
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		units:     make(map[string]map[string]map[uint64]uint64),
		operators: make(map[string]map[string]map[string]bool),
	}
}

// Mint credits quantity units of unitID under contract to owner.
func (v *Vault) Mint(contract, owner string, unitID, quantity uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.units[contract] == nil {
		v.units[contract] = make(map[string]map[uint64]uint64)
	}
	if v.units[contract][owner] == nil {
		v.units[contract][owner] = make(map[uint64]uint64)
	}
	v.units[contract][owner][unitID] += quantity
}

// BalanceOf returns owner's unit count for unitID under contract.
func (v *Vault) BalanceOf(contract, owner string, unitID uint64) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.units[contract][owner][unitID]
}

// SetApprovalForAll grants or revokes operator's authority over all of
// owner's units under contract.
func (v *Vault) SetApprovalForAll(contract, owner, operator string, approved bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.operators[contract] == nil {
		v.operators[contract] = make(map[string]map[string]bool)
	}
	if v.operators[contract][owner] == nil {
		v.operators[contract][owner] = make(map[string]bool)
	}
	v.operators[contract][owner][operator] = approved
}

// IsApprovedOperator reports whether operator may move owner's units under
// contract.
func (v *Vault) IsApprovedOperator(contract, owner, operator string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.operators[contract][owner][operator]
}

// TransferUnits moves quantity units of unitID from one owner to another.
// Atomic per call: on error no unit has moved.
func (v *Vault) TransferUnits(contract, from, to string, unitID, quantity uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	have := v.units[contract][from][unitID]
	if have < quantity {
		return fmt.Errorf("%w: %s holds %d of %s/%d, needs %d", ErrInsufficientUnits, from, have, contract, unitID, quantity)
	}
	v.units[contract][from][unitID] = have - quantity
	if v.units[contract][to] == nil {
		if v.units[contract] == nil {
			v.units[contract] = make(map[string]map[uint64]uint64)
		}
		v.units[contract][to] = make(map[uint64]uint64)
	}
	v.units[contract][to][unitID] += quantity
	return nil
}

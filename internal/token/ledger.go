// Package token provides the in-process fungible ledger backing both the
// launch tokens and the base currency. It is the custody surface the launch
// engine mints to, transfers through and burns from.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance = errors.New("token: insufficient balance")
	ErrSupplyOverflow      = errors.New("token: total supply overflow")
	ErrEmptyAccount        = errors.New("token: account address is empty")
)

// Ledger is a mutex-guarded balance map for one fungible asset. The
// conservation invariant sum(balances) == totalSupply holds across every
// operation.
type Ledger struct {
	mu          sync.Mutex
	name        string
	symbol      string
	totalSupply *uint256.Int
	balances    map[string]*uint256.Int
}

// NewLedger creates an empty ledger for the asset described by name and
// symbol.
func NewLedger(name, symbol string) *Ledger {
	return &Ledger{
		name:        name,
		symbol:      symbol,
		totalSupply: uint256.NewInt(0),
		balances:    make(map[string]*uint256.Int),
	}
}

func (l *Ledger) Name() string   { return l.name }
func (l *Ledger) Symbol() string { return l.symbol }

// Mint credits amount to account, growing the total supply.
func (l *Ledger) Mint(account string, amount *uint256.Int) error {
	if account == "" {
		return ErrEmptyAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	newSupply, overflow := new(uint256.Int).AddOverflow(l.totalSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	l.totalSupply = newSupply
	l.credit(account, amount)
	return nil
}

// Burn debits amount from account, shrinking the total supply.
func (l *Ledger) Burn(account string, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debit(account, amount); err != nil {
		return err
	}
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, amount)
	return nil
}

// Transfer moves amount from one account to another atomically.
func (l *Ledger) Transfer(from, to string, amount *uint256.Int) error {
	if to == "" {
		return ErrEmptyAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	return nil
}

// BalanceOf returns a copy of the account balance.
func (l *Ledger) BalanceOf(account string) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bal, ok := l.balances[account]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

// TotalSupply returns a copy of the current total supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply.Clone()
}

func (l *Ledger) credit(account string, amount *uint256.Int) {
	if bal, ok := l.balances[account]; ok {
		// Balances are bounded by totalSupply, which is overflow-checked in
		// Mint, so plain Add cannot wrap here.
		bal.Add(bal, amount)
		return
	}
	l.balances[account] = amount.Clone()
}

func (l *Ledger) debit(account string, amount *uint256.Int) error {
	bal, ok := l.balances[account]
	if !ok || bal.Lt(amount) {
		have := uint256.NewInt(0)
		if ok {
			have = bal
		}
		return fmt.Errorf("%w: account %s has %s, needs %s", ErrInsufficientBalance, account, have.Dec(), amount.Dec())
	}
	bal.Sub(bal, amount)
	return nil
}

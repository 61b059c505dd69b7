package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInsufficientFunds is returned when a transfer debits more than the
	// source account holds.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = errors.New("ledger: amount must be non-negative")
	// ErrInvalidToken is returned for malformed token symbols.
	ErrInvalidToken = errors.New("ledger: invalid token symbol")
)

// State is the narrow persistence surface the ledger needs. A state.Txn
// satisfies it, which keeps balance mutations inside the caller's unit of
// work.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// Book tracks fungible balances per (token, account). Amounts are integers in
// the token's smallest unit; the book never creates or destroys value except
// through Mint.
type Book struct {
	st State
}

// NewBook creates a balance book backed by the provided state.
func NewBook(st State) *Book {
	return &Book{st: st}
}

// NormalizeToken validates a token symbol and returns its canonical uppercase
// form. Symbols are 2-8 ASCII letters.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if len(trimmed) < 2 || len(trimmed) > 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidToken, symbol)
	}
	for _, r := range trimmed {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidToken, symbol)
		}
	}
	return trimmed, nil
}

func balanceKey(token string, addr [20]byte) []byte {
	return []byte(fmt.Sprintf("ledger/%s/%x", token, addr))
}

// BalanceOf returns the current balance of addr for token. Unknown accounts
// hold zero.
func (b *Book) BalanceOf(token string, addr [20]byte) (*big.Int, error) {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	balance := new(big.Int)
	if _, err := b.st.KVGet(balanceKey(normalized, addr), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// Transfer moves amount from one account to another. A zero amount is a
// no-op; a short source balance fails with ErrInsufficientFunds and no
// mutation.
func (b *Book) Transfer(token string, from, to [20]byte, amount *big.Int) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBalance, err := b.BalanceOf(normalized, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: need %s, have %s", ErrInsufficientFunds, amount, fromBalance)
	}
	toBalance, err := b.BalanceOf(normalized, to)
	if err != nil {
		return err
	}
	if err := b.st.KVPut(balanceKey(normalized, from), new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return b.st.KVPut(balanceKey(normalized, to), new(big.Int).Add(toBalance, amount))
}

// Mint credits amount to an account out of thin air. Deployments fund
// accounts through whatever on/off ramp sits above the core; tests and ops
// tooling use Mint directly.
func (b *Book) Mint(token string, to [20]byte, amount *big.Int) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	balance, err := b.BalanceOf(normalized, to)
	if err != nil {
		return err
	}
	return b.st.KVPut(balanceKey(normalized, to), new(big.Int).Add(balance, amount))
}

package events

import "math/big"

const (
	// TypeEscrowOpened is emitted when a purpose-bound escrow account is
	// created and funded.
	TypeEscrowOpened = "escrow.opened"
	// TypeEscrowReleased is emitted when an escrow account is drained
	// according to a settlement distribution.
	TypeEscrowReleased = "escrow.released"
)

// EscrowOpened captures the funding of a new escrow account.
type EscrowOpened struct {
	EscrowID  [32]byte
	Purpose   string
	RequestID [32]byte
	Depositor [20]byte
	Token     string
	Amount    *big.Int
}

// EventType implements the Event interface.
func (EscrowOpened) EventType() string { return TypeEscrowOpened }

// EscrowPayout is one leg of a release distribution.
type EscrowPayout struct {
	Recipient [20]byte
	Amount    *big.Int
}

// EscrowReleased captures the terminal drain of an escrow account.
type EscrowReleased struct {
	EscrowID [32]byte
	Purpose  string
	Token    string
	Payouts  []EscrowPayout
}

// EventType implements the Event interface.
func (EscrowReleased) EventType() string { return TypeEscrowReleased }

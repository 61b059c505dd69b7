package escrow

import "errors"

var (
	ErrNilState             = errors.New("escrow: state not configured")
	ErrNotFound             = errors.New("escrow: account not found")
	ErrDuplicateEscrow      = errors.New("escrow: account already exists")
	ErrAlreadyReleased      = errors.New("escrow: account already released")
	ErrDistributionMismatch = errors.New("escrow: distribution does not match balance")
	ErrInvalidAmount        = errors.New("escrow: deposit must be positive")
	ErrInvalidDistribution  = errors.New("escrow: invalid distribution")
)

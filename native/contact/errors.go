package contact

import "errors"

var (
	ErrNilState       = errors.New("contact: state not configured")
	ErrNotFound       = errors.New("contact: request not found")
	ErrUnauthorized   = errors.New("contact: unauthorized")
	ErrInvalidState   = errors.New("contact: request not pending")
	ErrInvalidTier    = errors.New("contact: invalid tier index")
	ErrNotContactable = errors.New("contact: profile does not accept paid contact")
	ErrMessageTooLong = errors.New("contact: message too long")
	ErrNotExpired     = errors.New("contact: request not expired")
)

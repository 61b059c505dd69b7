package profile

import "errors"

var (
	ErrNilState           = errors.New("profile: state not configured")
	ErrNotFound           = errors.New("profile: not found")
	ErrProfileExists      = errors.New("profile: already exists for owner")
	ErrUnauthorized       = errors.New("profile: unauthorized")
	ErrInvalidHandle      = errors.New("profile: invalid handle")
	ErrTooManyTiers       = errors.New("profile: too many contact tiers")
	ErrInvalidTierPrice   = errors.New("profile: tier price must be non-negative")
	ErrDescriptionTooLong = errors.New("profile: tier description too long")
	ErrTooManySkills      = errors.New("profile: too many skills")
	ErrBioTooLong         = errors.New("profile: bio too long")
)

package rewards

import "errors"

var (
	ErrNilState          = errors.New("rewards: state not configured")
	ErrPoolNotFound      = errors.New("rewards: pool not found")
	ErrDuplicatePool     = errors.New("rewards: pool already exists")
	ErrUnauthorized      = errors.New("rewards: unauthorized")
	ErrTooManyTiers      = errors.New("rewards: too many tiers")
	ErrInvalidTierAmount = errors.New("rewards: tier amount must be positive")
	ErrTierOutOfRange    = errors.New("rewards: tier index out of range")
	ErrReferralNotFound  = errors.New("rewards: referral not found")
	ErrDuplicateReferral = errors.New("rewards: referral already exists")
	ErrSelfReferral      = errors.New("rewards: referrer cannot refer themselves")
	ErrInvalidAmount     = errors.New("rewards: amount must be positive")
	ErrPoolBalanceShort  = errors.New("rewards: withdrawal exceeds pool balance")
)

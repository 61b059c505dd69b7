package events

import "math/big"

const (
	// TypeRewardPoolCreated is emitted when a sponsor registers a reward
	// pool.
	TypeRewardPoolCreated = "rewards.pool.created"
	// TypeRewardPoolDeposited is emitted when the pool authority tops up
	// the pool balance.
	TypeRewardPoolDeposited = "rewards.pool.deposited"
	// TypeRewardPoolWithdrawn is emitted when the pool authority reclaims
	// part of the pool balance.
	TypeRewardPoolWithdrawn = "rewards.pool.withdrawn"
	// TypeReferralCreated is emitted when a referrer registers a single-use
	// referral grant.
	TypeReferralCreated = "rewards.referral.created"
	// TypeReferralConsumed is emitted when a hire settlement consumes a
	// referral and splits the payout.
	TypeReferralConsumed = "rewards.referral.consumed"
)

// RewardPoolCreated captures the registration of a reward pool.
type RewardPoolCreated struct {
	PoolID    [32]byte
	Authority [20]byte
	Token     string
	Tiers     int
}

// EventType implements the Event interface.
func (RewardPoolCreated) EventType() string { return TypeRewardPoolCreated }

// RewardPoolBalanceChanged captures deposits and withdrawals against a pool.
type RewardPoolBalanceChanged struct {
	PoolID    [32]byte
	Authority [20]byte
	Amount    *big.Int
	Balance   *big.Int
	Withdrawn bool
}

// EventType implements the Event interface.
func (e RewardPoolBalanceChanged) EventType() string {
	if e.Withdrawn {
		return TypeRewardPoolWithdrawn
	}
	return TypeRewardPoolDeposited
}

// ReferralCreated captures the registration of a referral grant.
type ReferralCreated struct {
	ReferralID [32]byte
	PoolID     [32]byte
	Referrer   [20]byte
	Referee    [20]byte
}

// EventType implements the Event interface.
func (ReferralCreated) EventType() string { return TypeReferralCreated }

// ReferralConsumed captures the single permitted use of a referral grant.
type ReferralConsumed struct {
	ReferralID [32]byte
	PoolID     [32]byte
	Referrer   [20]byte
	Referee    [20]byte
	Referee50  *big.Int
	Referrer50 *big.Int
}

// EventType implements the Event interface.
func (ReferralConsumed) EventType() string { return TypeReferralConsumed }

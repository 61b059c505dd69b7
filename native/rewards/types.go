package rewards

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// MaxTiers bounds the number of bounty tiers a pool offers.
const MaxTiers = 5

// Tier is one advertised bounty level.
type Tier struct {
	RewardAmount *big.Int
	Description  string
}

// Pool is a sponsor-scoped container of bounty tiers backed by a funded
// vault. Balance reflects deposits minus withdrawals; TotalPaid accrues the
// amounts settled through hires for audit.
type Pool struct {
	ID        [32]byte
	Authority [20]byte
	Token     string
	Tiers     []Tier
	Balance   *big.Int
	TotalPaid *big.Int
	CreatedAt int64
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Tiers = make([]Tier, len(p.Tiers))
	for i, tier := range p.Tiers {
		clone.Tiers[i] = Tier{Description: tier.Description}
		if tier.RewardAmount != nil {
			clone.Tiers[i].RewardAmount = new(big.Int).Set(tier.RewardAmount)
		}
	}
	if p.Balance != nil {
		clone.Balance = new(big.Int).Set(p.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	if p.TotalPaid != nil {
		clone.TotalPaid = new(big.Int).Set(p.TotalPaid)
	} else {
		clone.TotalPaid = big.NewInt(0)
	}
	return &clone
}

// Referral is a single-use grant linking a referrer to a specific candidate
// under one pool. Used transitions false to true at most once.
type Referral struct {
	ID        [32]byte
	PoolID    [32]byte
	Referrer  [20]byte
	Referee   [20]byte
	Used      bool
	CreatedAt int64
}

// DerivePoolID computes the deterministic pool identifier for an authority
// and token. One pool per (token, authority) pair.
func DerivePoolID(token string, authority [20]byte) [32]byte {
	return ethcrypto.Keccak256Hash([]byte("reward.pool"), []byte(token), authority[:])
}

// DeriveReferralID computes the identifier of the single referral a referrer
// may hold for a referee under one pool.
func DeriveReferralID(poolID [32]byte, referrer, referee [20]byte) [32]byte {
	return ethcrypto.Keccak256Hash([]byte("referral"), poolID[:], referrer[:], referee[:])
}

// PoolVaultAddress derives the ledger account holding a pool's deposits.
func PoolVaultAddress(id [32]byte) [20]byte {
	hash := ethcrypto.Keccak256([]byte("rewards.vault"), id[:])
	var addr [20]byte
	copy(addr[:], hash[:20])
	return addr
}

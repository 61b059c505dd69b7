package rewards

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"talentpass/core/events"
	"talentpass/ledger"
	"talentpass/native/escrow"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVHas(key []byte) (bool, error)
}

func poolKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("rewards/pool/%x", id))
}

func referralKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("rewards/referral/%x", id))
}

// Engine holds sponsor-funded bounty tiers and tracks single-use referral
// grants. It exposes one settlement entry point, SettleHire, consumed by the
// hiring module; end users never call it directly.
type Engine struct {
	st      engineState
	book    *ledger.Book
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a rewards engine bound to the given state and balance
// book.
func NewEngine(st engineState, book *ledger.Book) *Engine {
	return &Engine{
		st:      st,
		book:    book,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func sanitizeTiers(tiers []Tier) ([]Tier, error) {
	if len(tiers) > MaxTiers {
		return nil, ErrTooManyTiers
	}
	sanitized := make([]Tier, len(tiers))
	for i, tier := range tiers {
		if tier.RewardAmount == nil || tier.RewardAmount.Sign() <= 0 {
			return nil, ErrInvalidTierAmount
		}
		sanitized[i] = Tier{
			RewardAmount: new(big.Int).Set(tier.RewardAmount),
			Description:  strings.TrimSpace(tier.Description),
		}
	}
	return sanitized, nil
}

// CreatePool registers a pool with zero balance and the given tier list.
func (e *Engine) CreatePool(authority [20]byte, token string, tiers []Tier) (*Pool, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	normalized, err := ledger.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	sanitized, err := sanitizeTiers(tiers)
	if err != nil {
		return nil, err
	}
	id := DerivePoolID(normalized, authority)
	exists, err := e.st.KVHas(poolKey(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s/%x", ErrDuplicatePool, normalized, authority)
	}
	pool := &Pool{
		ID:        id,
		Authority: authority,
		Token:     normalized,
		Tiers:     sanitized,
		Balance:   big.NewInt(0),
		TotalPaid: big.NewInt(0),
		CreatedAt: e.nowFn(),
	}
	if err := e.st.KVPut(poolKey(id), pool); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RewardPoolCreated{
		PoolID:    id,
		Authority: authority,
		Token:     normalized,
		Tiers:     len(sanitized),
	})
	return pool.Clone(), nil
}

// GetPool returns the pool for id.
func (e *Engine) GetPool(id [32]byte) (*Pool, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	pool := new(Pool)
	found, err := e.st.KVGet(poolKey(id), pool)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrPoolNotFound, id)
	}
	return pool, nil
}

// Deposit moves funds from the authority into the pool vault. Authority
// only.
func (e *Engine) Deposit(caller [20]byte, poolID [32]byte, amount *big.Int) (*Pool, error) {
	return e.adjustBalance(caller, poolID, amount, false)
}

// Withdraw moves funds from the pool vault back to the authority, bounded by
// the pool balance. Authority only.
func (e *Engine) Withdraw(caller [20]byte, poolID [32]byte, amount *big.Int) (*Pool, error) {
	return e.adjustBalance(caller, poolID, amount, true)
}

func (e *Engine) adjustBalance(caller [20]byte, poolID [32]byte, amount *big.Int, withdraw bool) (*Pool, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	pool, err := e.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if caller != pool.Authority {
		return nil, ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	vault := PoolVaultAddress(poolID)
	if withdraw {
		if pool.Balance.Cmp(amount) < 0 {
			return nil, fmt.Errorf("%w: %s of %s", ErrPoolBalanceShort, amount, pool.Balance)
		}
		if err := e.book.Transfer(pool.Token, vault, pool.Authority, amount); err != nil {
			return nil, err
		}
		pool.Balance = new(big.Int).Sub(pool.Balance, amount)
	} else {
		if err := e.book.Transfer(pool.Token, pool.Authority, vault, amount); err != nil {
			return nil, err
		}
		pool.Balance = new(big.Int).Add(pool.Balance, amount)
	}
	if err := e.st.KVPut(poolKey(poolID), pool); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.RewardPoolBalanceChanged{
		PoolID:    poolID,
		Authority: pool.Authority,
		Amount:    new(big.Int).Set(amount),
		Balance:   new(big.Int).Set(pool.Balance),
		Withdrawn: withdraw,
	})
	return pool.Clone(), nil
}

// CreateReferral records a single-use grant for (pool, referrer, referee).
// The same triple can never be claimed twice.
func (e *Engine) CreateReferral(referrer [20]byte, poolID [32]byte, referee [20]byte) (*Referral, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	if referrer == referee {
		return nil, ErrSelfReferral
	}
	if _, err := e.GetPool(poolID); err != nil {
		return nil, err
	}
	id := DeriveReferralID(poolID, referrer, referee)
	exists, err := e.st.KVHas(referralKey(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %x", ErrDuplicateReferral, id)
	}
	referral := &Referral{
		ID:        id,
		PoolID:    poolID,
		Referrer:  referrer,
		Referee:   referee,
		CreatedAt: e.nowFn(),
	}
	if err := e.st.KVPut(referralKey(id), referral); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ReferralCreated{
		ReferralID: id,
		PoolID:     poolID,
		Referrer:   referrer,
		Referee:    referee,
	})
	return referral, nil
}

// GetReferral returns the referral for id.
func (e *Engine) GetReferral(id [32]byte) (*Referral, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	referral := new(Referral)
	found, err := e.st.KVGet(referralKey(id), referral)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrReferralNotFound, id)
	}
	return referral, nil
}

// SettleHire computes the payout split for a settled hire. It never moves
// funds: the caller applies the returned distribution against its own escrow,
// keeping fund movement centralized in one place.
//
// A referral splits the bounty only when it is unused, belongs to the pool
// and names the beneficiary as referee; the beneficiary receives the floored
// half and the referrer the remainder, so an odd unit goes to the referrer.
// Any other referral condition falls back to a full payout to the
// beneficiary.
func (e *Engine) SettleHire(poolID [32]byte, tierIndex uint8, beneficiary [20]byte, referralID *[32]byte, amount *big.Int) (escrow.Distribution, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	pool, err := e.GetPool(poolID)
	if err != nil {
		return nil, err
	}
	if int(tierIndex) >= len(pool.Tiers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrTierOutOfRange, tierIndex, len(pool.Tiers))
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	distribution := escrow.Single(beneficiary, amount)
	if referralID != nil {
		referral := new(Referral)
		found, err := e.st.KVGet(referralKey(*referralID), referral)
		if err != nil {
			return nil, err
		}
		// A dangling, used or mismatched referral never blocks the hire;
		// it just forfeits the split.
		if found && !referral.Used && referral.PoolID == poolID && referral.Referee == beneficiary {
			refereeShare := new(big.Int).Rsh(amount, 1)
			referrerShare := new(big.Int).Sub(amount, refereeShare)
			distribution = escrow.Distribution{
				{Recipient: beneficiary, Amount: refereeShare},
				{Recipient: referral.Referrer, Amount: referrerShare},
			}
			referral.Used = true
			if err := e.st.KVPut(referralKey(referral.ID), referral); err != nil {
				return nil, err
			}
			e.emitter.Emit(events.ReferralConsumed{
				ReferralID: referral.ID,
				PoolID:     poolID,
				Referrer:   referral.Referrer,
				Referee:    referral.Referee,
				Referee50:  new(big.Int).Set(refereeShare),
				Referrer50: new(big.Int).Set(referrerShare),
			})
		}
	}
	pool.TotalPaid = new(big.Int).Add(pool.TotalPaid, amount)
	if err := e.st.KVPut(poolKey(poolID), pool); err != nil {
		return nil, err
	}
	return distribution, nil
}

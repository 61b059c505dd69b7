package escrow

import (
	"fmt"
	"math/big"
	"time"

	"talentpass/core/events"
	"talentpass/ledger"
)

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVHas(key []byte) (bool, error)
}

func accountKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("escrow/%x", id))
}

// Registry provides deterministic, collision-free addressing for holding
// accounts. An account is exclusively owned by the module that opened it:
// nothing debits its vault except Release, and Release drains it exactly
// once.
type Registry struct {
	st      registryState
	book    *ledger.Book
	emitter events.Emitter
	nowFn   func() int64
}

// NewRegistry creates a registry bound to the given state and balance book.
// Both usually wrap the same transaction so fund moves and account updates
// commit together.
func NewRegistry(st registryState, book *ledger.Book) *Registry {
	return &Registry{
		st:      st,
		book:    book,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source, primarily for deterministic tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// Open creates the escrow account for (purpose, requestID) and moves the
// initial deposit from the depositor into the account's vault.
func (r *Registry) Open(purpose Purpose, requestID [32]byte, depositor [20]byte, token string, deposit *big.Int) (*Account, error) {
	if r == nil || r.st == nil {
		return nil, ErrNilState
	}
	normalized, err := ledger.NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if deposit == nil || deposit.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	id := DeriveID(purpose, requestID)
	exists, err := r.st.KVHas(accountKey(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s/%x", ErrDuplicateEscrow, purpose, requestID)
	}
	if err := r.book.Transfer(normalized, depositor, VaultAddress(id), deposit); err != nil {
		return nil, err
	}
	account := &Account{
		ID:        id,
		Purpose:   purpose,
		RequestID: requestID,
		Depositor: depositor,
		Token:     normalized,
		Balance:   new(big.Int).Set(deposit),
		CreatedAt: r.nowFn(),
	}
	if err := r.st.KVPut(accountKey(id), account); err != nil {
		return nil, err
	}
	r.emitter.Emit(events.EscrowOpened{
		EscrowID:  id,
		Purpose:   string(purpose),
		RequestID: requestID,
		Depositor: depositor,
		Token:     normalized,
		Amount:    new(big.Int).Set(deposit),
	})
	return account.Clone(), nil
}

// Get returns the escrow account for id.
func (r *Registry) Get(id [32]byte) (*Account, error) {
	if r == nil || r.st == nil {
		return nil, ErrNilState
	}
	account := new(Account)
	found, err := r.st.KVGet(accountKey(id), account)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrNotFound, id)
	}
	return account, nil
}

// Release drains the account according to the distribution. The legs must
// sum to the exact balance; every transfer happens inside the caller's unit
// of work, so either the whole distribution settles or none of it does.
func (r *Registry) Release(id [32]byte, distribution Distribution) error {
	if r == nil || r.st == nil {
		return ErrNilState
	}
	account, err := r.Get(id)
	if err != nil {
		return err
	}
	if account.Released {
		return fmt.Errorf("%w: %x", ErrAlreadyReleased, id)
	}
	if len(distribution) == 0 {
		return ErrInvalidDistribution
	}
	for _, leg := range distribution {
		if leg.Amount == nil || leg.Amount.Sign() < 0 {
			return ErrInvalidDistribution
		}
	}
	if distribution.Total().Cmp(account.Balance) != 0 {
		return fmt.Errorf("%w: distributing %s of %s", ErrDistributionMismatch, distribution.Total(), account.Balance)
	}
	vault := VaultAddress(id)
	payouts := make([]events.EscrowPayout, 0, len(distribution))
	for _, leg := range distribution {
		if err := r.book.Transfer(account.Token, vault, leg.Recipient, leg.Amount); err != nil {
			return err
		}
		payouts = append(payouts, events.EscrowPayout{Recipient: leg.Recipient, Amount: new(big.Int).Set(leg.Amount)})
	}
	account.Balance = big.NewInt(0)
	account.Released = true
	if err := r.st.KVPut(accountKey(id), account); err != nil {
		return err
	}
	r.emitter.Emit(events.EscrowReleased{
		EscrowID: id,
		Purpose:  string(account.Purpose),
		Token:    account.Token,
		Payouts:  payouts,
	})
	return nil
}

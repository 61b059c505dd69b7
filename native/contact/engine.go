package contact

import (
	"fmt"
	"math/big"
	"time"

	"talentpass/core/events"
	"talentpass/native/escrow"
	"talentpass/native/profile"
)

// DefaultToken is the settlement token contact fees are charged in unless
// the engine is configured otherwise.
const DefaultToken = "USDC"

// defaultResponseHours applies when a profile does not state a response
// window.
const defaultResponseHours = 72

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// ProfileReader supplies read-only profile data to the gate. The gate never
// mutates profiles.
type ProfileReader interface {
	Get(id [32]byte) (*profile.Profile, error)
}

// EscrowRegistry is the holding-account capability the gate settles through.
type EscrowRegistry interface {
	Open(purpose escrow.Purpose, requestID [32]byte, depositor [20]byte, token string, deposit *big.Int) (*escrow.Account, error)
	Release(id [32]byte, distribution escrow.Distribution) error
}

func requestKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("contact/request/%x", id))
}

var sequenceKey = []byte("contact/sequence")

// Engine enforces pay-to-contact semantics: the requester escrows the tier
// price up front, an accepted request refunds the requester in full, a
// rejected request pays the profile owner in full, and an unanswered request
// is reclaimable by anyone after expiry. The accept-refunds/reject-pays split
// is the anti-spam incentive: attention is always compensated.
type Engine struct {
	st       engineState
	profiles ProfileReader
	escrows  EscrowRegistry
	token    string
	emitter  events.Emitter
	nowFn    func() int64
}

// NewEngine creates a contact gate bound to the given state, profile source
// and escrow registry.
func NewEngine(st engineState, profiles ProfileReader, escrows EscrowRegistry) *Engine {
	return &Engine{
		st:       st,
		profiles: profiles,
		escrows:  escrows,
		token:    DefaultToken,
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
	}
}

// SetToken overrides the settlement token used for new contact fees.
func (e *Engine) SetToken(token string) {
	if token != "" {
		e.token = token
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

func (e *Engine) nextSequence() (uint64, error) {
	var seq uint64
	if _, err := e.st.KVGet(sequenceKey, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := e.st.KVPut(sequenceKey, seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// Send validates the tier choice, escrows the tier price from the requester
// and records a pending request. The expiry window is the profile's stated
// response time.
func (e *Engine) Send(requester [20]byte, profileID [32]byte, tierIndex uint8, message string) (*Request, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	if len([]rune(message)) > MaxMessage {
		return nil, ErrMessageTooLong
	}
	target, err := e.profiles.Get(profileID)
	if err != nil {
		return nil, err
	}
	if len(target.ContactTiers) == 0 {
		return nil, ErrNotContactable
	}
	if int(tierIndex) >= len(target.ContactTiers) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidTier, tierIndex, len(target.ContactTiers))
	}
	if !target.Contactable(tierIndex) {
		return nil, ErrNotContactable
	}
	price := target.ContactTiers[tierIndex].Price
	seq, err := e.nextSequence()
	if err != nil {
		return nil, err
	}
	id := DeriveID(requester, profileID, seq)
	if _, err := e.escrows.Open(escrow.PurposeContact, id, requester, e.token, price); err != nil {
		return nil, err
	}
	now := e.nowFn()
	hours := int64(target.ResponseTimeHours)
	if hours == 0 {
		hours = defaultResponseHours
	}
	req := &Request{
		ID:        id,
		Requester: requester,
		ProfileID: profileID,
		TierIndex: tierIndex,
		Token:     e.token,
		Amount:    new(big.Int).Set(price),
		Message:   message,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now + hours*3600,
	}
	if err := e.st.KVPut(requestKey(id), req); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ContactRequestSent{
		RequestID: id,
		Requester: requester,
		ProfileID: profileID,
		TierIndex: tierIndex,
		Amount:    new(big.Int).Set(price),
		ExpiresAt: req.ExpiresAt,
	})
	return req.Clone(), nil
}

// Get returns the request for id.
func (e *Engine) Get(id [32]byte) (*Request, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	req := new(Request)
	found, err := e.st.KVGet(requestKey(id), req)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrNotFound, id)
	}
	return req, nil
}

// Respond resolves a pending request. Only the profile owner may respond.
// Accepting refunds the escrowed fee to the requester; rejecting pays it to
// the owner. Exactly one of the two outcomes is possible.
func (e *Engine) Respond(caller [20]byte, requestID [32]byte, accept bool) (*Request, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	req, err := e.Get(requestID)
	if err != nil {
		return nil, err
	}
	target, err := e.profiles.Get(req.ProfileID)
	if err != nil {
		return nil, err
	}
	if caller != target.Owner {
		return nil, ErrUnauthorized
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, req.Status)
	}
	var recipient [20]byte
	var outcome string
	if accept {
		recipient = req.Requester
		req.Status = StatusAccepted
		outcome = "accepted"
	} else {
		recipient = target.Owner
		req.Status = StatusRejected
		outcome = "rejected"
	}
	if err := e.resolve(req, recipient, outcome); err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

// ReclaimExpired refunds a pending request to the requester once the expiry
// timestamp has elapsed. Callable by anyone; the terminal-state check is the
// correctness guard, so a second call fails with ErrInvalidState rather than
// paying twice.
func (e *Engine) ReclaimExpired(requestID [32]byte) (*Request, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	req, err := e.Get(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, req.Status)
	}
	if e.nowFn() <= req.ExpiresAt {
		return nil, fmt.Errorf("%w: expires at %d", ErrNotExpired, req.ExpiresAt)
	}
	req.Status = StatusExpired
	if err := e.resolve(req, req.Requester, "expired"); err != nil {
		return nil, err
	}
	return req.Clone(), nil
}

func (e *Engine) resolve(req *Request, recipient [20]byte, outcome string) error {
	escrowID := escrow.DeriveID(escrow.PurposeContact, req.ID)
	if err := e.escrows.Release(escrowID, escrow.Single(recipient, req.Amount)); err != nil {
		return err
	}
	if err := e.st.KVPut(requestKey(req.ID), req); err != nil {
		return err
	}
	e.emitter.Emit(events.ContactRequestResolved{
		RequestID: req.ID,
		Requester: req.Requester,
		ProfileID: req.ProfileID,
		Amount:    new(big.Int).Set(req.Amount),
		Recipient: recipient,
		Outcome:   outcome,
	})
	return nil
}

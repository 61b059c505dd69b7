package profile

import (
	"fmt"
	"strings"
	"time"

	"talentpass/core/events"
)

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVHas(key []byte) (bool, error)
}

func profileKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("profile/%x", id))
}

// Registry manages persistence of contactable profiles. The settlement core
// only ever reads profiles; mutation is reserved to the owner.
type Registry struct {
	st      registryState
	emitter events.Emitter
	nowFn   func() int64
}

// NewRegistry creates a registry backed by the provided state.
func NewRegistry(st registryState) *Registry {
	return &Registry{
		st:      st,
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

// Create registers a new profile for owner. The owner binding is immutable
// for the lifetime of the profile.
func (r *Registry) Create(owner [20]byte, p *Profile) (*Profile, error) {
	if r == nil || r.st == nil {
		return nil, ErrNilState
	}
	if p == nil {
		return nil, fmt.Errorf("%w: nil profile", ErrInvalidHandle)
	}
	handle := strings.TrimSpace(p.Handle)
	if handle == "" || len([]rune(handle)) > MaxHandle {
		return nil, ErrInvalidHandle
	}
	if len(p.Skills) > MaxSkills {
		return nil, ErrTooManySkills
	}
	if len([]rune(p.Bio)) > MaxBio {
		return nil, ErrBioTooLong
	}
	tiers, err := sanitizeTiers(p.ContactTiers)
	if err != nil {
		return nil, err
	}
	id := DeriveID(owner)
	exists, err := r.st.KVHas(profileKey(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %x", ErrProfileExists, owner)
	}
	now := r.nowFn()
	stored := p.Clone()
	stored.ID = id
	stored.Owner = owner
	stored.Handle = handle
	stored.ContactTiers = tiers
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if err := r.st.KVPut(profileKey(id), stored); err != nil {
		return nil, err
	}
	r.emitter.Emit(events.ProfileChanged{ProfileID: id, Owner: owner, Handle: handle, Created: true})
	return stored.Clone(), nil
}

// Get returns the profile for id.
func (r *Registry) Get(id [32]byte) (*Profile, error) {
	if r == nil || r.st == nil {
		return nil, ErrNilState
	}
	p := new(Profile)
	found, err := r.st.KVGet(profileKey(id), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrNotFound, id)
	}
	return p, nil
}

// UpdateTiers replaces the contact tier list. Only the owner may mutate it.
func (r *Registry) UpdateTiers(caller [20]byte, id [32]byte, tiers []ContactTier) (*Profile, error) {
	return r.update(caller, id, func(p *Profile) error {
		sanitized, err := sanitizeTiers(tiers)
		if err != nil {
			return err
		}
		p.ContactTiers = sanitized
		return nil
	})
}

// SetResponseTime updates the expected response window used to derive contact
// request expiries.
func (r *Registry) SetResponseTime(caller [20]byte, id [32]byte, hours uint16) (*Profile, error) {
	return r.update(caller, id, func(p *Profile) error {
		p.ResponseTimeHours = hours
		return nil
	})
}

// SetVisibility toggles the public directory flag.
func (r *Registry) SetVisibility(caller [20]byte, id [32]byte, public bool) (*Profile, error) {
	return r.update(caller, id, func(p *Profile) error {
		p.Public = public
		return nil
	})
}

func (r *Registry) update(caller [20]byte, id [32]byte, mutate func(*Profile) error) (*Profile, error) {
	if r == nil || r.st == nil {
		return nil, ErrNilState
	}
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if p.Owner != caller {
		return nil, ErrUnauthorized
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = r.nowFn()
	if err := r.st.KVPut(profileKey(id), p); err != nil {
		return nil, err
	}
	r.emitter.Emit(events.ProfileChanged{ProfileID: id, Owner: p.Owner, Handle: p.Handle})
	return p.Clone(), nil
}

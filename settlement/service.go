package settlement

import (
	"math/big"
	"time"

	"talentpass/core/events"
	"talentpass/ledger"
	"talentpass/native/contact"
	"talentpass/native/escrow"
	"talentpass/native/hiring"
	"talentpass/native/profile"
	"talentpass/native/rewards"
	"talentpass/state"
	"talentpass/storage"
)

// Service exposes every settlement operation as a single atomic unit of
// work: either all state mutations and fund transfers of an operation commit,
// or none do. Concurrent mutations of the same entity are resolved by the
// engines' compare-and-transition checks under the manager's single-writer
// commit discipline.
type Service struct {
	mgr          *state.Manager
	emitter      events.Emitter
	nowFn        func() int64
	contactToken string
}

// Option configures a Service.
type Option func(*Service)

// WithEmitter sets the event emitter shared by all engines.
func WithEmitter(emitter events.Emitter) Option {
	return func(s *Service) {
		if emitter != nil {
			s.emitter = emitter
		}
	}
}

// WithNowFunc overrides the time source, primarily for deterministic tests.
func WithNowFunc(now func() int64) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithContactToken sets the settlement token contact fees are charged in.
func WithContactToken(token string) Option {
	return func(s *Service) {
		if token != "" {
			s.contactToken = token
		}
	}
}

// New creates a settlement service over the given database.
func New(db storage.Database, opts ...Option) *Service {
	s := &Service{
		mgr:          state.NewManager(db),
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
		contactToken: contact.DefaultToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// engines bundles per-transaction engine instances. Engines are cheap to
// construct and must never outlive their transaction.
type engines struct {
	book     *ledger.Book
	escrows  *escrow.Registry
	profiles *profile.Registry
	contacts *contact.Engine
	rewards  *rewards.Engine
	hiring   *hiring.Engine
}

func (s *Service) bind(txn *state.Txn) *engines {
	book := ledger.NewBook(txn)
	escrows := escrow.NewRegistry(txn, book)
	escrows.SetEmitter(s.emitter)
	escrows.SetNowFunc(s.nowFn)
	profiles := profile.NewRegistry(txn)
	profiles.SetEmitter(s.emitter)
	profiles.SetNowFunc(s.nowFn)
	contacts := contact.NewEngine(txn, profiles, escrows)
	contacts.SetEmitter(s.emitter)
	contacts.SetNowFunc(s.nowFn)
	contacts.SetToken(s.contactToken)
	rewardsEngine := rewards.NewEngine(txn, book)
	rewardsEngine.SetEmitter(s.emitter)
	rewardsEngine.SetNowFunc(s.nowFn)
	hiringEngine := hiring.NewEngine(txn, escrows, rewardsEngine)
	hiringEngine.SetEmitter(s.emitter)
	hiringEngine.SetNowFunc(s.nowFn)
	return &engines{
		book:     book,
		escrows:  escrows,
		profiles: profiles,
		contacts: contacts,
		rewards:  rewardsEngine,
		hiring:   hiringEngine,
	}
}

func (s *Service) update(fn func(*engines) error) error {
	return s.mgr.Update(func(txn *state.Txn) error {
		return fn(s.bind(txn))
	})
}

func (s *Service) view(fn func(*engines) error) error {
	return s.mgr.View(func(txn *state.Txn) error {
		return fn(s.bind(txn))
	})
}

// --- Ledger ---

// Mint credits freshly issued funds to an account. Deployment on/off ramps
// and tests are the only intended callers.
func (s *Service) Mint(token string, to [20]byte, amount *big.Int) error {
	return s.update(func(e *engines) error {
		return e.book.Mint(token, to, amount)
	})
}

// BalanceOf returns the ledger balance of an account.
func (s *Service) BalanceOf(token string, addr [20]byte) (*big.Int, error) {
	var balance *big.Int
	err := s.view(func(e *engines) error {
		var err error
		balance, err = e.book.BalanceOf(token, addr)
		return err
	})
	return balance, err
}

// --- Profiles ---

// CreateProfile registers a profile for owner.
func (s *Service) CreateProfile(owner [20]byte, p *profile.Profile) (*profile.Profile, error) {
	var created *profile.Profile
	err := s.update(func(e *engines) error {
		var err error
		created, err = e.profiles.Create(owner, p)
		return err
	})
	return created, err
}

// GetProfile returns the profile for id.
func (s *Service) GetProfile(id [32]byte) (*profile.Profile, error) {
	var p *profile.Profile
	err := s.view(func(e *engines) error {
		var err error
		p, err = e.profiles.Get(id)
		return err
	})
	return p, err
}

// UpdateProfileTiers replaces the owner's contact tier list.
func (s *Service) UpdateProfileTiers(caller [20]byte, id [32]byte, tiers []profile.ContactTier) (*profile.Profile, error) {
	var p *profile.Profile
	err := s.update(func(e *engines) error {
		var err error
		p, err = e.profiles.UpdateTiers(caller, id, tiers)
		return err
	})
	return p, err
}

// SetProfileResponseTime updates the expected response window.
func (s *Service) SetProfileResponseTime(caller [20]byte, id [32]byte, hours uint16) (*profile.Profile, error) {
	var p *profile.Profile
	err := s.update(func(e *engines) error {
		var err error
		p, err = e.profiles.SetResponseTime(caller, id, hours)
		return err
	})
	return p, err
}

// SetProfileVisibility toggles the public directory flag.
func (s *Service) SetProfileVisibility(caller [20]byte, id [32]byte, public bool) (*profile.Profile, error) {
	var p *profile.Profile
	err := s.update(func(e *engines) error {
		var err error
		p, err = e.profiles.SetVisibility(caller, id, public)
		return err
	})
	return p, err
}

// --- Contact gate ---

// SendContactRequest escrows the tier fee and opens a pending introduction
// request.
func (s *Service) SendContactRequest(requester [20]byte, profileID [32]byte, tierIndex uint8, message string) (*contact.Request, error) {
	var req *contact.Request
	err := s.update(func(e *engines) error {
		var err error
		req, err = e.contacts.Send(requester, profileID, tierIndex, message)
		return err
	})
	return req, err
}

// RespondToContact resolves a pending request as the profile owner.
func (s *Service) RespondToContact(caller [20]byte, requestID [32]byte, accept bool) (*contact.Request, error) {
	var req *contact.Request
	err := s.update(func(e *engines) error {
		var err error
		req, err = e.contacts.Respond(caller, requestID, accept)
		return err
	})
	return req, err
}

// ReclaimExpiredContact refunds an expired pending request to the requester.
func (s *Service) ReclaimExpiredContact(requestID [32]byte) (*contact.Request, error) {
	var req *contact.Request
	err := s.update(func(e *engines) error {
		var err error
		req, err = e.contacts.ReclaimExpired(requestID)
		return err
	})
	return req, err
}

// GetContactRequest returns the contact request for id.
func (s *Service) GetContactRequest(id [32]byte) (*contact.Request, error) {
	var req *contact.Request
	err := s.view(func(e *engines) error {
		var err error
		req, err = e.contacts.Get(id)
		return err
	})
	return req, err
}

// --- Rewards ---

// CreateRewardPool registers a pool with the given tier list.
func (s *Service) CreateRewardPool(authority [20]byte, token string, tiers []rewards.Tier) (*rewards.Pool, error) {
	var pool *rewards.Pool
	err := s.update(func(e *engines) error {
		var err error
		pool, err = e.rewards.CreatePool(authority, token, tiers)
		return err
	})
	return pool, err
}

// GetRewardPool returns the pool for id.
func (s *Service) GetRewardPool(id [32]byte) (*rewards.Pool, error) {
	var pool *rewards.Pool
	err := s.view(func(e *engines) error {
		var err error
		pool, err = e.rewards.GetPool(id)
		return err
	})
	return pool, err
}

// DepositToPool tops up a pool from the authority's balance.
func (s *Service) DepositToPool(caller [20]byte, poolID [32]byte, amount *big.Int) (*rewards.Pool, error) {
	var pool *rewards.Pool
	err := s.update(func(e *engines) error {
		var err error
		pool, err = e.rewards.Deposit(caller, poolID, amount)
		return err
	})
	return pool, err
}

// WithdrawFromPool reclaims part of the pool balance to the authority.
func (s *Service) WithdrawFromPool(caller [20]byte, poolID [32]byte, amount *big.Int) (*rewards.Pool, error) {
	var pool *rewards.Pool
	err := s.update(func(e *engines) error {
		var err error
		pool, err = e.rewards.Withdraw(caller, poolID, amount)
		return err
	})
	return pool, err
}

// CreateReferral registers a single-use referral grant.
func (s *Service) CreateReferral(referrer [20]byte, poolID [32]byte, referee [20]byte) (*rewards.Referral, error) {
	var referral *rewards.Referral
	err := s.update(func(e *engines) error {
		var err error
		referral, err = e.rewards.CreateReferral(referrer, poolID, referee)
		return err
	})
	return referral, err
}

// GetReferral returns the referral for id.
func (s *Service) GetReferral(id [32]byte) (*rewards.Referral, error) {
	var referral *rewards.Referral
	err := s.view(func(e *engines) error {
		var err error
		referral, err = e.rewards.GetReferral(id)
		return err
	})
	return referral, err
}

// --- Hiring ---

// CreateJob escrows the bounty and records an active posting.
func (s *Service) CreateJob(recruiter [20]byte, spec hiring.JobSpec, nonce uint64, bounty *big.Int) (*hiring.Job, error) {
	var job *hiring.Job
	err := s.update(func(e *engines) error {
		var err error
		job, err = e.hiring.CreateJob(recruiter, spec, nonce, bounty)
		return err
	})
	return job, err
}

// GetJob returns the job for id.
func (s *Service) GetJob(id [32]byte) (*hiring.Job, error) {
	var job *hiring.Job
	err := s.view(func(e *engines) error {
		var err error
		job, err = e.hiring.GetJob(id)
		return err
	})
	return job, err
}

// ApplyToJob records a candidate's bid against a job.
func (s *Service) ApplyToJob(applicant [20]byte, jobID [32]byte, message string, referralID *[32]byte) (*hiring.Application, error) {
	var application *hiring.Application
	err := s.update(func(e *engines) error {
		var err error
		application, err = e.hiring.Apply(applicant, jobID, message, referralID)
		return err
	})
	return application, err
}

// GetApplication returns the application for id.
func (s *Service) GetApplication(id [32]byte) (*hiring.Application, error) {
	var application *hiring.Application
	err := s.view(func(e *engines) error {
		var err error
		application, err = e.hiring.GetApplication(id)
		return err
	})
	return application, err
}

// HireApplicant settles exactly one hire for the application's job.
func (s *Service) HireApplicant(recruiter [20]byte, applicationID [32]byte, tierIndex uint8) (*hiring.Application, error) {
	var application *hiring.Application
	err := s.update(func(e *engines) error {
		var err error
		application, err = e.hiring.Hire(recruiter, applicationID, tierIndex)
		return err
	})
	return application, err
}

// RejectApplicant closes an application without fund movement.
func (s *Service) RejectApplicant(recruiter [20]byte, applicationID [32]byte) (*hiring.Application, error) {
	var application *hiring.Application
	err := s.update(func(e *engines) error {
		var err error
		application, err = e.hiring.Reject(recruiter, applicationID)
		return err
	})
	return application, err
}

// GetEscrowAccount returns the escrow account for id, for audit surfaces.
func (s *Service) GetEscrowAccount(id [32]byte) (*escrow.Account, error) {
	var account *escrow.Account
	err := s.view(func(e *engines) error {
		var err error
		account, err = e.escrows.Get(id)
		return err
	})
	return account, err
}

package hiring

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

// RewardSettler computes the payout split for a settled hire. The hiring
// engine applies the returned distribution itself; the settler never moves
// funds. The rewards engine is the production implementation.
type RewardSettler interface {
	SettleHire(poolID [32]byte, tierIndex uint8, beneficiary [20]byte, referralID *[32]byte, amount *big.Int) (escrow.Distribution, error)
}

// EscrowRegistry is the holding-account capability the engine settles
// through.
type EscrowRegistry interface {
	Open(purpose escrow.Purpose, requestID [32]byte, depositor [20]byte, token string, deposit *big.Int) (*escrow.Account, error)
	Release(id [32]byte, distribution escrow.Distribution) error
}

func jobKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("hiring/job/%x", id))
}

func applicationKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("hiring/application/%x", id))
}

// Engine binds a job posting to an escrowed bounty and resolves exactly one
// hire per job. The bounty escrow is drained once, by the winning hire's
// distribution.
type Engine struct {
	st      engineState
	escrows EscrowRegistry
	settler RewardSettler
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine creates a hiring engine bound to the given state, escrow
// registry and reward settler.
func NewEngine(st engineState, escrows EscrowRegistry, settler RewardSettler) *Engine {
	return &Engine{
		st:      st,
		escrows: escrows,
		settler: settler,
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

func sanitizeSpec(spec JobSpec) (JobSpec, error) {
	spec.Title = strings.TrimSpace(spec.Title)
	if spec.Title == "" || len([]rune(spec.Title)) > MaxTitle {
		return spec, fmt.Errorf("%w: title", ErrInvalidSpec)
	}
	if len([]rune(spec.Description)) > MaxDescription {
		return spec, fmt.Errorf("%w: description", ErrInvalidSpec)
	}
	if len(spec.RequiredSkills) > MaxSkills {
		return spec, fmt.Errorf("%w: skills", ErrInvalidSpec)
	}
	if spec.SalaryMin != nil && spec.SalaryMax != nil && spec.SalaryMax.Cmp(spec.SalaryMin) < 0 {
		return spec, fmt.Errorf("%w: salary band", ErrInvalidSpec)
	}
	if spec.DeadlineDays == 0 || spec.DeadlineDays > MaxDeadlineDays {
		return spec, fmt.Errorf("%w: deadline", ErrInvalidSpec)
	}
	return spec, nil
}

// CreateJob validates the spec, escrows the bounty from the recruiter and
// records an active posting. The escrow and the posting commit in the same
// unit of work.
func (e *Engine) CreateJob(recruiter [20]byte, spec JobSpec, nonce uint64, bounty *big.Int) (*Job, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	spec, err := sanitizeSpec(spec)
	if err != nil {
		return nil, err
	}
	token, err := ledger.NormalizeToken(spec.Token)
	if err != nil {
		return nil, err
	}
	if bounty == nil || bounty.Sign() <= 0 {
		return nil, ErrInvalidBounty
	}
	id := DeriveJobID(recruiter, nonce)
	exists, err := e.st.KVHas(jobKey(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: nonce %d", ErrDuplicateJob, nonce)
	}
	if _, err := e.escrows.Open(escrow.PurposeJobBounty, id, recruiter, token, bounty); err != nil {
		return nil, err
	}
	now := e.nowFn()
	job := &Job{
		ID:             id,
		Recruiter:      recruiter,
		Title:          spec.Title,
		Description:    spec.Description,
		RequiredSkills: append([]string(nil), spec.RequiredSkills...),
		SalaryMin:      cloneAmount(spec.SalaryMin),
		SalaryMax:      cloneAmount(spec.SalaryMax),
		Deadline:       now + int64(spec.DeadlineDays)*24*3600,
		Token:          token,
		Bounty:         new(big.Int).Set(bounty),
		PoolID:         spec.PoolID,
		Active:         true,
		CreatedAt:      now,
	}
	if err := e.st.KVPut(jobKey(id), job); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.JobCreated{
		JobID:     id,
		Recruiter: recruiter,
		Token:     token,
		Bounty:    new(big.Int).Set(bounty),
		Deadline:  job.Deadline,
	})
	return job.Clone(), nil
}

// GetJob returns the job for id.
func (e *Engine) GetJob(id [32]byte) (*Job, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	job := new(Job)
	found, err := e.st.KVGet(jobKey(id), job)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrJobNotFound, id)
	}
	return job, nil
}

// Apply records a candidate's bid. An optional referral is stored untouched
// and validated only at hire time, so it may be created before or after the
// application.
func (e *Engine) Apply(applicant [20]byte, jobID [32]byte, message string, referralID *[32]byte) (*Application, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	if len([]rune(message)) > MaxCoverLetter {
		return nil, ErrCoverLetterTooLong
	}
	job, err := e.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if !job.Active {
		return nil, ErrJobClosed
	}
	if e.nowFn() > job.Deadline {
		return nil, ErrDeadlinePassed
	}
	id := DeriveApplicationID(jobID, applicant)
	exists, err := e.st.KVHas(applicationKey(id))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %x", ErrDuplicateApplication, id)
	}
	application := &Application{
		ID:        id,
		JobID:     jobID,
		Applicant: applicant,
		Message:   message,
		Status:    StatusApplied,
		AppliedAt: e.nowFn(),
	}
	if referralID != nil {
		ref := *referralID
		application.ReferralID = &ref
	}
	if err := e.st.KVPut(applicationKey(id), application); err != nil {
		return nil, err
	}
	job.ApplicationCount++
	if err := e.st.KVPut(jobKey(jobID), job); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ApplicationSubmitted{
		ApplicationID: id,
		JobID:         jobID,
		Applicant:     applicant,
		ReferralID:    application.ReferralID,
	})
	return application, nil
}

// GetApplication returns the application for id.
func (e *Engine) GetApplication(id [32]byte) (*Application, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	application := new(Application)
	found, err := e.st.KVGet(applicationKey(id), application)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %x", ErrApplicationNotFound, id)
	}
	return application, nil
}

// Hire settles exactly one hire for the job: the reward settler computes the
// split, the bounty escrow is drained by that distribution, the application
// becomes Hired and the job closes. Check order: authorization, job state,
// application state. Every step commits in the caller's unit of work, so a
// failed settlement leaves neither a paid-but-unmarked nor a
// marked-but-unpaid hire.
func (e *Engine) Hire(recruiter [20]byte, applicationID [32]byte, tierIndex uint8) (*Application, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	application, err := e.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}
	job, err := e.GetJob(application.JobID)
	if err != nil {
		return nil, err
	}
	if recruiter != job.Recruiter {
		return nil, ErrUnauthorized
	}
	if !job.Active {
		return nil, ErrJobClosed
	}
	if application.Status != StatusApplied {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, application.Status)
	}
	var distribution escrow.Distribution
	if job.HasPool() {
		distribution, err = e.settler.SettleHire(job.PoolID, tierIndex, application.Applicant, application.ReferralID, job.Bounty)
		if err != nil {
			return nil, err
		}
	} else {
		distribution = escrow.Single(application.Applicant, job.Bounty)
	}
	escrowID := escrow.DeriveID(escrow.PurposeJobBounty, job.ID)
	if err := e.escrows.Release(escrowID, distribution); err != nil {
		return nil, err
	}
	application.Status = StatusHired
	if err := e.st.KVPut(applicationKey(applicationID), application); err != nil {
		return nil, err
	}
	job.Active = false
	if err := e.st.KVPut(jobKey(job.ID), job); err != nil {
		return nil, err
	}
	payouts := make([]events.EscrowPayout, 0, len(distribution))
	for _, leg := range distribution {
		payouts = append(payouts, events.EscrowPayout{Recipient: leg.Recipient, Amount: new(big.Int).Set(leg.Amount)})
	}
	e.emitter.Emit(events.ApplicationHired{
		ApplicationID: applicationID,
		JobID:         job.ID,
		Applicant:     application.Applicant,
		Payouts:       payouts,
	})
	return application, nil
}

// Reject moves an open application to Rejected. Recruiter only, no fund
// movement, independent of the job's active flag.
func (e *Engine) Reject(recruiter [20]byte, applicationID [32]byte) (*Application, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	application, err := e.GetApplication(applicationID)
	if err != nil {
		return nil, err
	}
	job, err := e.GetJob(application.JobID)
	if err != nil {
		return nil, err
	}
	if recruiter != job.Recruiter {
		return nil, ErrUnauthorized
	}
	if application.Status != StatusApplied {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, application.Status)
	}
	application.Status = StatusRejected
	if err := e.st.KVPut(applicationKey(applicationID), application); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.ApplicationRejected{
		ApplicationID: applicationID,
		JobID:         job.ID,
		Applicant:     application.Applicant,
	})
	return application, nil
}

func cloneAmount(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

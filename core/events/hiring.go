package events

import "math/big"

const (
	// TypeJobCreated is emitted when a recruiter posts a job with an
	// escrowed bounty.
	TypeJobCreated = "hiring.job.created"
	// TypeApplicationSubmitted is emitted when a candidate applies to a
	// job.
	TypeApplicationSubmitted = "hiring.application.submitted"
	// TypeApplicationRejected is emitted when a recruiter rejects an
	// application.
	TypeApplicationRejected = "hiring.application.rejected"
	// TypeApplicationHired is emitted when a hire settles, paying out the
	// job bounty and closing the job.
	TypeApplicationHired = "hiring.application.hired"
)

// JobCreated captures the posting of a job with an escrowed bounty.
type JobCreated struct {
	JobID     [32]byte
	Recruiter [20]byte
	Token     string
	Bounty    *big.Int
	Deadline  int64
}

// EventType implements the Event interface.
func (JobCreated) EventType() string { return TypeJobCreated }

// ApplicationSubmitted captures a candidate's bid against a job.
type ApplicationSubmitted struct {
	ApplicationID [32]byte
	JobID         [32]byte
	Applicant     [20]byte
	ReferralID    *[32]byte
}

// EventType implements the Event interface.
func (ApplicationSubmitted) EventType() string { return TypeApplicationSubmitted }

// ApplicationRejected captures a fund-free rejection.
type ApplicationRejected struct {
	ApplicationID [32]byte
	JobID         [32]byte
	Applicant     [20]byte
}

// EventType implements the Event interface.
func (ApplicationRejected) EventType() string { return TypeApplicationRejected }

// ApplicationHired captures the settled hire, including the applied payout
// distribution.
type ApplicationHired struct {
	ApplicationID [32]byte
	JobID         [32]byte
	Applicant     [20]byte
	Payouts       []EscrowPayout
}

// EventType implements the Event interface.
func (ApplicationHired) EventType() string { return TypeApplicationHired }

package hiring

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ApplicationStatus is the lifecycle state of an application. Applied is the
// only non-terminal state.
type ApplicationStatus uint8

const (
	StatusApplied ApplicationStatus = iota
	StatusHired
	StatusRejected
)

// String returns the canonical lowercase name of the status.
func (s ApplicationStatus) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusHired:
		return "hired"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s ApplicationStatus) Terminal() bool { return s != StatusApplied }

const (
	// MaxTitle bounds the job title in runes.
	MaxTitle = 100
	// MaxDescription bounds the job description in runes.
	MaxDescription = 1000
	// MaxSkills bounds the required-skills list.
	MaxSkills = 10
	// MaxDeadlineDays bounds the posting window.
	MaxDeadlineDays = 365
	// MaxCoverLetter bounds the application message in runes.
	MaxCoverLetter = 1000
)

// JobSpec carries the recruiter-supplied posting fields validated at
// creation.
type JobSpec struct {
	Title          string
	Description    string
	RequiredSkills []string
	SalaryMin      *big.Int
	SalaryMax      *big.Int
	DeadlineDays   uint16
	Token          string
	// PoolID optionally binds the job to a reward pool for tier validation
	// and referral splits. A zero value means no pool: hires settle the
	// full bounty to the applicant.
	PoolID [32]byte
}

// Job is a posting with an escrowed bounty. Active is true until exactly one
// hire settles it.
type Job struct {
	ID               [32]byte
	Recruiter        [20]byte
	Title            string
	Description      string
	RequiredSkills   []string
	SalaryMin        *big.Int
	SalaryMax        *big.Int
	Deadline         int64
	Token            string
	Bounty           *big.Int
	PoolID           [32]byte
	Active           bool
	ApplicationCount uint32
	CreatedAt        int64
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	clone.RequiredSkills = append([]string(nil), j.RequiredSkills...)
	if j.SalaryMin != nil {
		clone.SalaryMin = new(big.Int).Set(j.SalaryMin)
	}
	if j.SalaryMax != nil {
		clone.SalaryMax = new(big.Int).Set(j.SalaryMax)
	}
	if j.Bounty != nil {
		clone.Bounty = new(big.Int).Set(j.Bounty)
	}
	return &clone
}

// HasPool reports whether the job references a reward pool.
func (j *Job) HasPool() bool { return j.PoolID != ([32]byte{}) }

// Application is a candidate's bid against a job. At most one exists per
// (job, applicant) pair, enforced by the derived identifier.
type Application struct {
	ID         [32]byte
	JobID      [32]byte
	Applicant  [20]byte
	Message    string
	ReferralID *[32]byte
	Status     ApplicationStatus
	AppliedAt  int64
}

// DeriveJobID computes the identifier of a recruiter's posting for a given
// nonce.
func DeriveJobID(recruiter [20]byte, nonce uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], nonce)
	return ethcrypto.Keccak256Hash([]byte("job"), recruiter[:], buf[:])
}

// DeriveApplicationID computes the identifier of an applicant's bid against a
// job.
func DeriveApplicationID(jobID [32]byte, applicant [20]byte) [32]byte {
	return ethcrypto.Keccak256Hash([]byte("application"), jobID[:], applicant[:])
}

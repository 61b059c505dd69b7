package hiring

import "errors"

var (
	ErrNilState             = errors.New("hiring: state not configured")
	ErrJobNotFound          = errors.New("hiring: job not found")
	ErrDuplicateJob         = errors.New("hiring: job already exists")
	ErrApplicationNotFound  = errors.New("hiring: application not found")
	ErrDuplicateApplication = errors.New("hiring: application already exists")
	ErrUnauthorized         = errors.New("hiring: unauthorized")
	ErrInvalidState         = errors.New("hiring: application not open")
	ErrJobClosed            = errors.New("hiring: job closed")
	ErrDeadlinePassed       = errors.New("hiring: job deadline passed")
	ErrInvalidSpec          = errors.New("hiring: invalid job spec")
	ErrInvalidBounty        = errors.New("hiring: bounty must be positive")
	ErrCoverLetterTooLong   = errors.New("hiring: cover letter too long")
)

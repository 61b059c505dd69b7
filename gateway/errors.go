package gateway

import (
	"errors"
	"net/http"

	"talentpass/ledger"
	"talentpass/native/contact"
	"talentpass/native/escrow"
	"talentpass/native/hiring"
	"talentpass/native/profile"
	"talentpass/native/rewards"
)

// statusFor maps the settlement core's error taxonomy onto HTTP status codes
// so a calling UI can distinguish insufficient balance from already responded
// from wrong signer without parsing free text.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, contact.ErrUnauthorized),
		errors.Is(err, profile.ErrUnauthorized),
		errors.Is(err, rewards.ErrUnauthorized),
		errors.Is(err, hiring.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, contact.ErrNotFound),
		errors.Is(err, profile.ErrNotFound),
		errors.Is(err, rewards.ErrPoolNotFound),
		errors.Is(err, rewards.ErrReferralNotFound),
		errors.Is(err, hiring.ErrJobNotFound),
		errors.Is(err, hiring.ErrApplicationNotFound),
		errors.Is(err, escrow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contact.ErrInvalidState),
		errors.Is(err, contact.ErrNotExpired),
		errors.Is(err, hiring.ErrInvalidState),
		errors.Is(err, hiring.ErrJobClosed),
		errors.Is(err, hiring.ErrDeadlinePassed),
		errors.Is(err, escrow.ErrDuplicateEscrow),
		errors.Is(err, rewards.ErrDuplicatePool),
		errors.Is(err, rewards.ErrDuplicateReferral),
		errors.Is(err, hiring.ErrDuplicateJob),
		errors.Is(err, hiring.ErrDuplicateApplication),
		errors.Is(err, profile.ErrProfileExists):
		return http.StatusConflict
	case errors.Is(err, contact.ErrInvalidTier),
		errors.Is(err, contact.ErrNotContactable),
		errors.Is(err, contact.ErrMessageTooLong),
		errors.Is(err, rewards.ErrTierOutOfRange),
		errors.Is(err, rewards.ErrInvalidAmount),
		errors.Is(err, rewards.ErrSelfReferral),
		errors.Is(err, rewards.ErrTooManyTiers),
		errors.Is(err, rewards.ErrInvalidTierAmount),
		errors.Is(err, rewards.ErrPoolBalanceShort),
		errors.Is(err, hiring.ErrInvalidSpec),
		errors.Is(err, hiring.ErrInvalidBounty),
		errors.Is(err, hiring.ErrCoverLetterTooLong),
		errors.Is(err, profile.ErrInvalidHandle),
		errors.Is(err, profile.ErrTooManyTiers),
		errors.Is(err, profile.ErrInvalidTierPrice),
		errors.Is(err, profile.ErrDescriptionTooLong),
		errors.Is(err, profile.ErrTooManySkills),
		errors.Is(err, profile.ErrBioTooLong),
		errors.Is(err, ledger.ErrInvalidToken),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, escrow.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		// Escrow invariant breaches (DistributionMismatch, AlreadyReleased
		// reached outside a normal transition) and storage failures are
		// internal faults.
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

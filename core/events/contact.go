package events

import "math/big"

const (
	// TypeContactRequestSent is emitted when a requester escrows a contact
	// fee and opens an introduction request.
	TypeContactRequestSent = "contact.request.sent"
	// TypeContactRequestAccepted is emitted when the profile owner accepts
	// the request and the escrow refunds the requester.
	TypeContactRequestAccepted = "contact.request.accepted"
	// TypeContactRequestRejected is emitted when the profile owner rejects
	// the request and the escrow pays the owner.
	TypeContactRequestRejected = "contact.request.rejected"
	// TypeContactRequestExpired is emitted when a pending request is
	// reclaimed after its expiry timestamp.
	TypeContactRequestExpired = "contact.request.expired"
)

// ContactRequestSent captures the creation of a paid introduction request.
type ContactRequestSent struct {
	RequestID [32]byte
	Requester [20]byte
	ProfileID [32]byte
	TierIndex uint8
	Amount    *big.Int
	ExpiresAt int64
}

// EventType implements the Event interface.
func (ContactRequestSent) EventType() string { return TypeContactRequestSent }

// ContactRequestResolved captures any terminal transition of a contact
// request together with the address that received the escrowed funds.
type ContactRequestResolved struct {
	RequestID [32]byte
	Requester [20]byte
	ProfileID [32]byte
	Amount    *big.Int
	Recipient [20]byte
	Outcome   string
}

// EventType implements the Event interface.
func (e ContactRequestResolved) EventType() string {
	switch e.Outcome {
	case "accepted":
		return TypeContactRequestAccepted
	case "rejected":
		return TypeContactRequestRejected
	default:
		return TypeContactRequestExpired
	}
}

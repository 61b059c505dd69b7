package contact

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Status is the lifecycle state of a contact request. Pending is the only
// non-terminal state.
type Status uint8

const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
	StatusExpired
)

// String returns the canonical lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s != StatusPending }

// MaxMessage bounds the introduction message in runes.
const MaxMessage = 1000

// Request represents one paid introduction attempt. The escrowed amount is
// fixed at creation to the price of the chosen tier.
type Request struct {
	ID        [32]byte
	Requester [20]byte
	ProfileID [32]byte
	TierIndex uint8
	Token     string
	Amount    *big.Int
	Message   string
	Status    Status
	CreatedAt int64
	ExpiresAt int64
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// DeriveID computes the identifier of the seq-th contact request from a
// requester to a profile.
func DeriveID(requester [20]byte, profileID [32]byte, seq uint64) [32]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return ethcrypto.Keccak256Hash([]byte("contact"), requester[:], profileID[:], buf[:])
}

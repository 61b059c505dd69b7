package escrow

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Purpose tags the module that owns an escrow account. Purposes partition the
// ID space so two modules can never collide on the same request identifier.
type Purpose string

const (
	// PurposeContact holds contact-request fees.
	PurposeContact Purpose = "contact"
	// PurposeJobBounty holds job hiring bounties.
	PurposeJobBounty Purpose = "job.bounty"
)

// Account is a purpose-bound holding account. Its balance equals deposits
// minus releases, and it is drained to zero exactly once.
type Account struct {
	ID        [32]byte
	Purpose   Purpose
	RequestID [32]byte
	Depositor [20]byte
	Token     string
	Balance   *big.Int
	Released  bool
	CreatedAt int64
}

// Clone returns a deep copy so callers can mutate safely.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}

// DeriveID computes the deterministic escrow identifier for a purpose and
// owning request. The same (purpose, requestID) pair always maps to the same
// account, which is what makes duplicate detection a pure key check.
func DeriveID(purpose Purpose, requestID [32]byte) [32]byte {
	return ethcrypto.Keccak256Hash([]byte(purpose), requestID[:])
}

// VaultAddress derives the ledger account that physically holds the escrowed
// funds for an account ID.
func VaultAddress(id [32]byte) [20]byte {
	hash := ethcrypto.Keccak256([]byte("escrow.vault"), id[:])
	var addr [20]byte
	copy(addr[:], hash[:20])
	return addr
}

// Payout is one leg of a release distribution.
type Payout struct {
	Recipient [20]byte
	Amount    *big.Int
}

// Distribution is the complete payout plan applied by a single release. Its
// legs must sum to the escrow balance exactly.
type Distribution []Payout

// Total returns the sum of all legs. Nil amounts count as zero.
func (d Distribution) Total() *big.Int {
	total := big.NewInt(0)
	for _, leg := range d {
		if leg.Amount != nil {
			total.Add(total, leg.Amount)
		}
	}
	return total
}

// Single returns a distribution paying the full amount to one recipient.
func Single(recipient [20]byte, amount *big.Int) Distribution {
	return Distribution{{Recipient: recipient, Amount: new(big.Int).Set(amount)}}
}

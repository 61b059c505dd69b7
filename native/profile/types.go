package profile

import (
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// MaxContactTiers bounds the number of pricing tiers a profile offers.
	MaxContactTiers = 5
	// MaxTierDescription bounds a tier description in runes.
	MaxTierDescription = 50
	// MaxHandle bounds a profile handle in runes.
	MaxHandle = 30
	// MaxBio bounds the profile bio in runes.
	MaxBio = 280
	// MaxSkills bounds the number of listed skills.
	MaxSkills = 10
)

// ContactTier is one priced contact option a profile offers.
type ContactTier struct {
	Price       *big.Int
	Description string
}

// Profile is the identity anchor for a contactable person. The owner binding
// is immutable; tiers, response time and visibility are owner-mutable. The
// directory fields (skills, region, bio) are opaque to the settlement core.
type Profile struct {
	ID                [32]byte
	Owner             [20]byte
	Handle            string
	Skills            []string
	ExperienceYears   uint16
	Region            string
	Bio               string
	ContactTiers      []ContactTier
	ResponseTimeHours uint16
	Public            bool
	CreatedAt         int64
	UpdatedAt         int64
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Skills = append([]string(nil), p.Skills...)
	clone.ContactTiers = make([]ContactTier, len(p.ContactTiers))
	for i, tier := range p.ContactTiers {
		clone.ContactTiers[i] = ContactTier{Description: tier.Description}
		if tier.Price != nil {
			clone.ContactTiers[i].Price = new(big.Int).Set(tier.Price)
		}
	}
	return &clone
}

// Contactable reports whether the profile accepts paid contact at the given
// tier index.
func (p *Profile) Contactable(tierIndex uint8) bool {
	if p == nil || int(tierIndex) >= len(p.ContactTiers) {
		return false
	}
	price := p.ContactTiers[tierIndex].Price
	return price != nil && price.Sign() > 0
}

// DeriveID computes the deterministic profile identifier for an owner. One
// profile per owner.
func DeriveID(owner [20]byte) [32]byte {
	return ethcrypto.Keccak256Hash([]byte("profile"), owner[:])
}

func sanitizeTiers(tiers []ContactTier) ([]ContactTier, error) {
	if len(tiers) > MaxContactTiers {
		return nil, ErrTooManyTiers
	}
	sanitized := make([]ContactTier, len(tiers))
	for i, tier := range tiers {
		if tier.Price == nil || tier.Price.Sign() < 0 {
			return nil, ErrInvalidTierPrice
		}
		description := strings.TrimSpace(tier.Description)
		if len([]rune(description)) > MaxTierDescription {
			return nil, ErrDescriptionTooLong
		}
		sanitized[i] = ContactTier{Price: new(big.Int).Set(tier.Price), Description: description}
	}
	return sanitized, nil
}

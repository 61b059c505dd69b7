package events

const (
	// TypeProfileCreated is emitted when an owner registers a profile.
	TypeProfileCreated = "profile.created"
	// TypeProfileUpdated is emitted when an owner changes mutable profile
	// fields (contact tiers, response time, visibility).
	TypeProfileUpdated = "profile.updated"
)

// ProfileChanged captures profile registration and mutation.
type ProfileChanged struct {
	ProfileID [32]byte
	Owner     [20]byte
	Handle    string
	Created   bool
}

// EventType implements the Event interface.
func (e ProfileChanged) EventType() string {
	if e.Created {
		return TypeProfileCreated
	}
	return TypeProfileUpdated
}

package events

// Event represents a structured state change emitted by the settlement
// engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. gateway,
// indexers, audit logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for engines whose callers do not care about notifications.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder is an Emitter that retains every event it sees, in order. It is
// primarily useful in tests and audit tooling.
type Recorder struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.Events = append(r.Events, evt)
}

// ByType returns the recorded events whose type matches eventType, in emit
// order.
func (r *Recorder) ByType(eventType string) []Event {
	if r == nil {
		return nil
	}
	var matched []Event
	for _, evt := range r.Events {
		if evt.EventType() == eventType {
			matched = append(matched, evt)
		}
	}
	return matched
}

// Package notification holds the ephemeral toast-style UI flags. The
// flags are advisory presentation state, not part of the order's
// correctness invariants; they only need to stay in step with the events
// the order core emits.
package notification

import "github.com/rs/zerolog"

// Event names a discrete UI notification trigger.
type Event int

const (
	// EventAdded signals an item was added to the cart.
	EventAdded Event = iota
	// EventAlready signals the item was already in the cart.
	EventAlready
	// EventLogout signals the user logged out.
	EventLogout
	// EventDeleted signals a record (such as an order) was deleted.
	EventDeleted
	// EventHideAll clears every flag.
	EventHideAll
)

// State is the full flag set. It is a value object: Apply returns a new
// State rather than mutating in place, so it can be passed through
// explicit context without shared mutable state.
type State struct {
	ShowAdded   bool `json:"showAdded"`
	ShowAlready bool `json:"showAlready"`
	ShowLogout  bool `json:"showLogout"`
	ShowDeleted bool `json:"showDeleted"`
}

// Apply returns the state after the given event. Unknown events leave the
// state unchanged.
func (s State) Apply(e Event) State {
	switch e {
	case EventAdded:
		s.ShowAdded = true
	case EventAlready:
		s.ShowAlready = true
	case EventLogout:
		s.ShowLogout = true
	case EventDeleted:
		s.ShowDeleted = true
	case EventHideAll:
		return State{}
	}
	return s
}

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventAdded:
		return "added"
	case EventAlready:
		return "already"
	case EventLogout:
		return "logout"
	case EventDeleted:
		return "deleted"
	case EventHideAll:
		return "hide_all"
	default:
		return "unknown"
	}
}

// Sink receives notification events fired by the core. Implementations
// are presentation-layer concerns; the core only publishes.
type Sink interface {
	Publish(e Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Publish(Event) {}

// LogSink writes each event to the structured log. The API has no push
// channel to the client yet, so the log is the delivery target.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink that logs published events.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("component", "notification").Logger()}
}

func (s *LogSink) Publish(e Event) {
	s.logger.Info().Str("event", e.String()).Msg("notification event")
}

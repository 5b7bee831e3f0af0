package bus

import "time"

// Event kinds published by the core packages. Subscribers filter by
// namespace prefix, e.g. "session." receives every session event.
const (
	KindSessionStateChanged = "session.state_changed"
	KindSessionTyping       = "session.typing"
	KindMessageMerged       = "message.merged"
	KindDirectoryChanged    = "directory.changed"
	KindAccountLoggedIn     = "account.logged_in"
	KindAccountLoggedOut    = "account.logged_out"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Emit builds an event stamped with the current time.
func Emit(kind string, payload any) Event {
	return Event{Kind: kind, Timestamp: time.Now(), Payload: payload}
}

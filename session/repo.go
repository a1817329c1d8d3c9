package session

// Store persists the session record under a single durable key. Absence of the
// record is equivalent to the logged-out session: Get returns (nil, nil).
//
// Implementations must make Set durable before returning so that a subsequent
// Get, by any caller, observes the new value.
type Store interface {
	Get() (*Session, error)
	Set(session *Session) error
	Remove() error
}

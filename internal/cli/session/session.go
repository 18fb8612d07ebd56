// Package session holds the console's authentication state.
package session

import "errors"

// Persisted keys of the session triple.
const (
	KeyToken     = "jwt_token"
	KeyUserID    = "user_id"
	KeyUserEmail = "user_email"
)

var (
	// ErrIncomplete is returned by Establish when a field of the triple is empty.
	ErrIncomplete = errors.New("session: token, user id and user email are all required")

	// ErrClosed is returned when writing to a closed store.
	ErrClosed = errors.New("session: store closed")
)

// State is the authentication state derived from a Store.
type State int

const (
	// Anonymous means no usable session is stored.
	Anonymous State = iota
	// Authenticated means a complete session is stored.
	Authenticated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Authenticated:
		return "Authenticated"
	default:
		return "Anonymous"
	}
}

// Session is the persisted authentication triple.
type Session struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
}

// Complete reports whether every field of the triple is set.
func (s Session) Complete() bool {
	return s.Token != "" && s.UserID != "" && s.UserEmail != ""
}

// Store is the single source of truth for "is a user authenticated".
//
// Implementations must be safe for concurrent use: the gateway clears the
// store from whichever goroutine received a 401.
type Store interface {
	// Establish writes token, user id and user email as a unit.
	Establish(s Session) error

	// Clear removes the session. Clearing an empty store is a no-op.
	Clear() error

	// Read returns the stored session, or false when absent.
	// A partially stored triple or a storage fault reads as absent.
	Read() (Session, bool)
}

// StateOf derives the authentication state of a store.
func StateOf(st Store) State {
	if _, ok := st.Read(); ok {
		return Authenticated
	}
	return Anonymous
}

// fromFields builds a session from raw key/value pairs, rejecting partial triples.
func fromFields(fields map[string]string) (Session, bool) {
	s := Session{
		Token:     fields[KeyToken],
		UserID:    fields[KeyUserID],
		UserEmail: fields[KeyUserEmail],
	}
	if !s.Complete() {
		return Session{}, false
	}
	return s, true
}

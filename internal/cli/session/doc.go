// Package session holds the console's authentication state.
//
// A session is the triple of bearer token, user id and user email that a
// successful register or login hands back. The triple is written and
// removed as a unit:
//
//   - session.go: Session, State and the Store contract
//   - memory.go: in-process store used by tests and one-shot runs
//   - badger.go: durable store under the user's profile directory
//   - sealer.go: token encryption at rest for the durable store
//
// Reads never fail. A store that cannot be read, or that holds only part
// of the triple, reports the session as absent.
package session

// Package gateway is the single egress point from the console to the backend.
//
//   - client.go: request decoration, fixed timeout and the 401 hook
//   - errors.go: error kinds separating transport failures from status failures
//
// Every request carries the x-auth-token header when a session is present.
// A 401 answer from any endpoint clears the session once before the error
// is returned. Nothing is retried.
package gateway

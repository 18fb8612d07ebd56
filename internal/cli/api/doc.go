// Package api wraps every backend endpoint used by the console.
//
//   - service.go: Service, shared errors and the session guard
//   - auth.go: register, login, logout and identity
//   - client.go: integration configuration and its upsert
//   - product.go: inventory listing
//   - whatsapp.go: pairing artifact, connect and disconnect
//
// All calls go through the gateway, so the session token is attached and a
// 401 clears the session before the error reaches the caller.
package api

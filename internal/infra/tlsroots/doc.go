// Package tlsroots builds the trusted root pool for HTTPS backends:
// the system roots plus an optional PEM bundle (server.cafile).
package tlsroots

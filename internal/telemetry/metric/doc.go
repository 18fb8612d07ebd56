// Package metric provides Prometheus metrics for the console.
//
//   - prometheus.go: gateway request, latency and session-expiry metrics
//   - summary.go: flattening gathered families for the shell `stats` command
//
// The registry is private to the process; nothing is exposed over HTTP.
package metric

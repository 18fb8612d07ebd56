// Package output renders command results.
//
//   - formatter.go: Formatter interface and factory (table, json, yaml)
//   - table.go: aligned tables for Tabular values
//   - spinner.go: progress animation while waiting on the backend
//   - qr.go: pairing artifacts rendered in the terminal
//
// Results go to stdout; spinners and diagnostics go to stderr.
package output

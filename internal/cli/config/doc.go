// Package config defines the console configuration (~/.stockvoice/cli.yaml).
//
//   - spec.go: Config structure and defaults
//   - loader.go: layered loading, validation and saving
package config

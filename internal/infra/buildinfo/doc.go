// Package buildinfo exposes version information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/stockvoice-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Without ldflags the VCS revision recorded by the Go toolchain is used.
package buildinfo

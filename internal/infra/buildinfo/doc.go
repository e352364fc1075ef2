// Package buildinfo reports the version of the running binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/quickvote-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Without ldflags the Go version and VCS revision embedded by the
// toolchain are used.
package buildinfo

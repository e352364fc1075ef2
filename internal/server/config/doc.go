// Package config defines the quickvote-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values, as a struct and as a koanf defaults map
//   - load.go: layered loading through internal/infra/confloader
//   - verify.go: validation before startup
//   - sanitize.go: secret masking for logging
package config

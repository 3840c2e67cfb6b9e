// Package config defines the rollcall-server configuration.
//
//   - spec.go: ServerConfig and its sections
//   - default.go: default values
//   - verify.go: validation before startup
//   - sanitize.go: masking of secrets for logging
//   - convert.go: translation into storage and backup settings
//
// Values are loaded with internal/infra/confloader from a YAML file,
// ROLLCALL_ environment variables and command-line flags.
package config

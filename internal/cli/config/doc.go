// Package config holds rollcall-cli preferences.
//
// Preferences live in ~/.rollcall/cli.yaml and may be overridden by
// ROLLCALL_CLI_* environment variables. Command-line flags win over both.
package config

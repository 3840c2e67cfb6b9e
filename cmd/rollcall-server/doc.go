// Package main provides the entry point for rollcall-server.
//
// rollcall-server keeps employee and attendance records in an embedded
// Badger store and serves them over JSON/HTTP and, optionally, a RESP
// command port.
//
// Usage:
//
//	rollcall-server [serve] [--config FILE] [--data-dir DIR] [--http-addr ADDR]
//	rollcall-server restore [--config FILE] [--snapshot ID]
//	rollcall-server version
//
// Configuration is read from defaults, then the YAML file, then ROLLCALL_*
// environment variables, then flags.
package main

// Package main provides the entry point for rollcall-cli, the command line
// client for rollcall-server.
//
// Usage:
//
//	rollcall-cli [global flags] attendance submit <employee-id>
//	rollcall-cli [global flags] employee get <id>
//	rollcall-cli shell
package main

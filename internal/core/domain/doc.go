// Package domain defines the core domain models for rollcall.
//
// Domain models are plain value types without IO dependencies:
//
//   - Attendance: an immutable, server-stamped attendance event
//   - Employee: a caller-keyed employee record with mutable name and role
//   - Errors: coded domain errors shared by every transport
package domain

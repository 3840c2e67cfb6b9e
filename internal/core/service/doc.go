// Package service provides the domain services for rollcall.
//
// Services hold the business rules and depend on storage only through the
// repository interfaces declared here, so tests can substitute in-memory
// fakes. This package contains:
//
//   - AttendanceService: submit and look up attendance events
//   - EmployeeService: add, update and look up employee records
//   - Clock: the server time source used to stamp attendance
//
// Services are safe for concurrent use.
package service

package domain

import (
	"fmt"
	"time"
)

// Attendance is a single attendance event.
//
// ID is issued by the identifier allocator and Time is stamped by the server
// at creation (nanoseconds since the Unix epoch). Neither changes afterwards.
// EmployeeID is stored as given; it is not checked against the employee store.
type Attendance struct {
	ID         uint64 `json:"id" msgpack:"id"`
	EmployeeID uint64 `json:"employee_id" msgpack:"employee_id"`
	Time       uint64 `json:"time" msgpack:"time"`
}

// NewAttendance builds an attendance event for employeeID stamped at t.
// The id is assigned when the event is stored.
func NewAttendance(employeeID, t uint64) Attendance {
	return Attendance{EmployeeID: employeeID, Time: t}
}

// WithRecordKey returns a copy of a carrying the allocated id.
func (a Attendance) WithRecordKey(id uint64) Attendance {
	a.ID = id
	return a
}

// RecordKey returns the storage key.
func (a Attendance) RecordKey() uint64 {
	return a.ID
}

// Timestamp returns Time as a time.Time in UTC.
func (a Attendance) Timestamp() time.Time {
	return time.Unix(0, int64(a.Time)).UTC()
}

// AttendanceNotFound returns ErrAttendanceNotFound with the id in its details.
func AttendanceNotFound(id uint64) *DomainError {
	return ErrAttendanceNotFound.WithDetails(fmt.Sprintf("attendance with ID %d not found", id))
}

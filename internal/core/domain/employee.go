package domain

import (
	"fmt"
	"unicode/utf8"
)

// Employee is an employee record keyed by the caller-supplied EmployeeID.
type Employee struct {
	EmployeeID uint64 `json:"employee_id" msgpack:"employee_id"`
	Name       string `json:"name" msgpack:"name"`
	Role       string `json:"role" msgpack:"role"`
}

// RecordKey returns the storage key.
func (e Employee) RecordKey() uint64 {
	return e.EmployeeID
}

// Validate checks the mutable fields.
func (e Employee) Validate() error {
	return ValidateEmployeeFields(e.Name, e.Role)
}

// ValidateEmployeeFields checks that name and role are text. Any string,
// including the empty one, is accepted; the encoded record size is bounded
// by the store.
func ValidateEmployeeFields(name, role string) error {
	switch {
	case !utf8.ValidString(name):
		return ErrEmployeeValidation.WithDetails("name is not valid UTF-8")
	case !utf8.ValidString(role):
		return ErrEmployeeValidation.WithDetails("role is not valid UTF-8")
	}
	return nil
}

// EmployeeNotFound returns ErrEmployeeNotFound with the id in its details.
func EmployeeNotFound(id uint64) *DomainError {
	return ErrEmployeeNotFound.WithDetails(fmt.Sprintf("employee with ID %d not found", id))
}

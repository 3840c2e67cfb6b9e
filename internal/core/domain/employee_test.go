package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestEmployee_Validate(t *testing.T) {
	tests := []struct {
		name    string
		emp     Employee
		wantErr bool
	}{
		{"valid", Employee{EmployeeID: 1, Name: "Bob", Role: "Clerk"}, false},
		{"empty role", Employee{EmployeeID: 1, Name: "Bob"}, false},
		{"multi-byte", Employee{EmployeeID: 1, Name: "Zoë", Role: "会計"}, false},
		{"empty name and role", Employee{EmployeeID: 1}, false},
		{"blank name", Employee{EmployeeID: 1, Name: "   "}, false},
		{"long fields", Employee{Name: strings.Repeat("a", 400), Role: strings.Repeat("r", 400)}, false},
		{"invalid utf-8 name", Employee{Name: "Bob\xff"}, true},
		{"invalid utf-8 role", Employee{Name: "Bob", Role: "\xc3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.emp.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmployeeValidation) {
				t.Errorf("expected ErrEmployeeValidation, got %v", err)
			}
		})
	}
}

func TestEmployee_RecordKey(t *testing.T) {
	e := Employee{EmployeeID: 77}
	if e.RecordKey() != 77 {
		t.Errorf("RecordKey() = %d, want 77", e.RecordKey())
	}
}

package service

import (
	"context"
	"sync"

	"github.com/yndnr/rollcall-go/internal/core/domain"
)

// mockAttendanceRepo is an in-memory AttendanceRepository.
type mockAttendanceRepo struct {
	mu      sync.Mutex
	nextID  uint64
	records map[uint64]domain.Attendance
	err     error
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[uint64]domain.Attendance)}
}

func (m *mockAttendanceRepo) CreateAttendance(ctx context.Context, a domain.Attendance) (domain.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Attendance{}, m.err
	}
	m.nextID++
	a.ID = m.nextID
	m.records[a.ID] = a
	return a, nil
}

func (m *mockAttendanceRepo) GetAttendance(ctx context.Context, id uint64) (domain.Attendance, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.Attendance{}, false, m.err
	}
	a, ok := m.records[id]
	return a, ok, nil
}

// mockEmployeeRepo is an in-memory EmployeeRepository that counts writes.
type mockEmployeeRepo struct {
	mu      sync.Mutex
	records map[uint64]domain.Employee
	puts    int
	putErr  error
	getErr  error
}

func newMockEmployeeRepo() *mockEmployeeRepo {
	return &mockEmployeeRepo{records: make(map[uint64]domain.Employee)}
}

func (m *mockEmployeeRepo) PutEmployee(ctx context.Context, e domain.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.records[e.EmployeeID] = e
	return nil
}

func (m *mockEmployeeRepo) GetEmployee(ctx context.Context, id uint64) (domain.Employee, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.Employee{}, false, m.getErr
	}
	e, ok := m.records[id]
	return e, ok, nil
}

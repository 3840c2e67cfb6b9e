package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/rollcall-go/internal/core/domain"
)

// EmployeeRepository defines the storage interface for employee records.
type EmployeeRepository interface {
	// PutEmployee stores e under e.EmployeeID, replacing any existing record.
	PutEmployee(ctx context.Context, e domain.Employee) error

	// GetEmployee returns the employee with the given id. The bool is false
	// when no such employee exists.
	GetEmployee(ctx context.Context, id uint64) (domain.Employee, bool, error)
}

// EmployeeService handles employee records.
type EmployeeService struct {
	repo   EmployeeRepository
	logger *slog.Logger

	// mu makes Update's read-modify-write atomic with respect to Add.
	mu sync.Mutex
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(repo EmployeeRepository, logger *slog.Logger) *EmployeeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeService{
		repo:   repo,
		logger: logger,
	}
}

// AddEmployeeRequest contains parameters for adding an employee.
type AddEmployeeRequest struct {
	EmployeeID uint64 // Used as the storage key
	Name       string
	Role       string
}

// UpdateEmployeeRequest contains the replacement name and role.
type UpdateEmployeeRequest struct {
	EmployeeID uint64
	Name       string
	Role       string
}

// Add stores a new employee record.
//
// An existing record with the same id is overwritten.
func (s *EmployeeService) Add(ctx context.Context, req *AddEmployeeRequest) (domain.Employee, error) {
	emp := domain.Employee{
		EmployeeID: req.EmployeeID,
		Name:       req.Name,
		Role:       req.Role,
	}
	if err := emp.Validate(); err != nil {
		return domain.Employee{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.PutEmployee(ctx, emp); err != nil {
		s.logger.ErrorContext(ctx, "add employee failed",
			"employee_id", emp.EmployeeID,
			"error", err)
		return domain.Employee{}, domain.ErrStorageError.WithCause(err)
	}
	return emp, nil
}

// Update replaces the name and role of an existing employee.
//
// If no employee has the id, nothing is written and ErrEmployeeNotFound is
// returned.
func (s *EmployeeService) Update(ctx context.Context, req *UpdateEmployeeRequest) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	emp, ok, err := s.repo.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		s.logger.ErrorContext(ctx, "update employee: read failed",
			"employee_id", req.EmployeeID,
			"error", err)
		return domain.Employee{}, domain.ErrStorageError.WithCause(err)
	}
	if !ok {
		return domain.Employee{}, domain.EmployeeNotFound(req.EmployeeID)
	}

	emp.Name = req.Name
	emp.Role = req.Role
	if err := emp.Validate(); err != nil {
		return domain.Employee{}, err
	}

	if err := s.repo.PutEmployee(ctx, emp); err != nil {
		s.logger.ErrorContext(ctx, "update employee: write failed",
			"employee_id", req.EmployeeID,
			"error", err)
		return domain.Employee{}, domain.ErrStorageError.WithCause(err)
	}
	return emp, nil
}

// Get returns the employee with the given id.
func (s *EmployeeService) Get(ctx context.Context, id uint64) (domain.Employee, error) {
	emp, ok, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "get employee failed", "employee_id", id, "error", err)
		return domain.Employee{}, domain.ErrStorageError.WithCause(err)
	}
	if !ok {
		return domain.Employee{}, domain.EmployeeNotFound(id)
	}
	return emp, nil
}

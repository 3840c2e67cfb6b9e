package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/rollcall-go/internal/core/domain"
)

// AttendanceRepository defines the storage interface for attendance events.
type AttendanceRepository interface {
	// CreateAttendance stores a under a freshly allocated id and returns the
	// stored event.
	CreateAttendance(ctx context.Context, a domain.Attendance) (domain.Attendance, error)

	// GetAttendance returns the event with the given id. The bool is false
	// when no such event exists.
	GetAttendance(ctx context.Context, id uint64) (domain.Attendance, bool, error)
}

// AttendanceService handles attendance submission and lookup.
type AttendanceService struct {
	repo   AttendanceRepository
	clock  Clock
	logger *slog.Logger

	// mu covers stamping and id allocation together, so a higher id never
	// carries an earlier time.
	mu sync.Mutex
}

// NewAttendanceService creates a new AttendanceService.
// A nil clock defaults to a MonotonicClock, a nil logger to slog.Default().
func NewAttendanceService(repo AttendanceRepository, clock Clock, logger *slog.Logger) *AttendanceService {
	if clock == nil {
		clock = NewMonotonicClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceService{
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

// Submit records an attendance event for employeeID stamped with the current
// server time.
//
// employeeID is not checked against the employee store.
func (s *AttendanceService) Submit(ctx context.Context, employeeID uint64) (domain.Attendance, error) {
	s.mu.Lock()
	rec, err := s.repo.CreateAttendance(ctx, domain.NewAttendance(employeeID, s.clock.Now()))
	s.mu.Unlock()
	if err != nil {
		s.logger.ErrorContext(ctx, "submit attendance failed",
			"employee_id", employeeID,
			"error", err)
		return domain.Attendance{}, domain.ErrStorageError.WithCause(err)
	}
	return rec, nil
}

// Get returns the attendance event with the given id.
func (s *AttendanceService) Get(ctx context.Context, id uint64) (domain.Attendance, error) {
	rec, ok, err := s.repo.GetAttendance(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "get attendance failed", "id", id, "error", err)
		return domain.Attendance{}, domain.ErrStorageError.WithCause(err)
	}
	if !ok {
		return domain.Attendance{}, domain.AttendanceNotFound(id)
	}
	return rec, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rhive/backoffice/internal/domain"
	"rhive/backoffice/internal/store"
)

func (s *Service) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	return s.repo.ListShifts(ctx)
}

// CheckIn opens an attendance record for today. A second check-in while one
// is still open is rejected.
func (s *Service) CheckIn(ctx context.Context, req domain.CheckInRequest) (domain.Attendance, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.EmployeeID == "" {
		return domain.Attendance{}, store.ErrInvalidPayload
	}

	now := time.Now().UTC()
	if _, err := s.repo.GetOpenAttendance(ctx, req.EmployeeID, now); err == nil {
		return domain.Attendance{}, fmt.Errorf("%w: employee already checked in", store.ErrInvalidPayload)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Attendance{}, err
	}

	shiftID := strings.TrimSpace(req.ShiftID)
	if shiftID == "" {
		shift, err := s.currentShift(ctx, now)
		if err != nil {
			return domain.Attendance{}, err
		}
		shiftID = shift.ID
	}

	checkIn := now
	created, err := s.repo.CreateAttendance(ctx, domain.Attendance{
		EmployeeID: req.EmployeeID,
		ShiftID:    shiftID,
		Date:       now,
		CheckIn:    &checkIn,
		Status:     domain.AttendanceStatusPresent,
	})
	if err != nil {
		return domain.Attendance{}, err
	}
	return *created, nil
}

func (s *Service) CheckOut(ctx context.Context, req domain.CheckOutRequest) (domain.Attendance, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.EmployeeID == "" {
		return domain.Attendance{}, store.ErrInvalidPayload
	}

	now := time.Now().UTC()
	open, err := s.repo.GetOpenAttendance(ctx, req.EmployeeID, now)
	if err != nil {
		return domain.Attendance{}, err
	}

	checkOut := now
	open.CheckOut = &checkOut
	updated, err := s.repo.UpdateAttendance(ctx, *open)
	if err != nil {
		return domain.Attendance{}, err
	}
	return *updated, nil
}

func (s *Service) RequestLeave(ctx context.Context, req domain.LeaveRequest) (domain.Attendance, error) {
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.EmployeeID == "" || req.Reason == "" {
		return domain.Attendance{}, store.ErrInvalidPayload
	}

	date := time.Now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return domain.Attendance{}, store.ErrInvalidPayload
		}
		date = parsed.UTC()
	}

	created, err := s.repo.CreateAttendance(ctx, domain.Attendance{
		EmployeeID:  req.EmployeeID,
		Date:        date,
		Status:      domain.AttendanceStatusLeavePending,
		LeaveReason: req.Reason,
	})
	if err != nil {
		return domain.Attendance{}, err
	}
	return *created, nil
}

func (s *Service) ApproveLeave(ctx context.Context, attendanceID string) (domain.Attendance, error) {
	attendanceID = strings.TrimSpace(attendanceID)
	if attendanceID == "" {
		return domain.Attendance{}, store.ErrInvalidPayload
	}

	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Attendance{}, ErrAdminRequired
	}

	att, err := s.repo.GetAttendanceByID(ctx, attendanceID)
	if err != nil {
		return domain.Attendance{}, err
	}
	if att.Status != domain.AttendanceStatusLeavePending {
		return domain.Attendance{}, fmt.Errorf("%w: attendance is not a pending leave", store.ErrInvalidPayload)
	}

	att.Status = domain.AttendanceStatusLeaveApproved
	updated, err := s.repo.UpdateAttendance(ctx, *att)
	if err != nil {
		return domain.Attendance{}, err
	}
	return *updated, nil
}

func (s *Service) ListAttendance(ctx context.Context) ([]domain.Attendance, error) {
	return s.repo.ListAttendance(ctx)
}

func (s *Service) ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]domain.Attendance, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, store.ErrInvalidPayload
	}
	return s.repo.ListAttendanceByEmployee(ctx, employeeID)
}

func (s *Service) ListAttendanceByShift(ctx context.Context, shiftID string) ([]domain.Attendance, error) {
	shiftID = strings.TrimSpace(shiftID)
	if shiftID == "" {
		return nil, store.ErrInvalidPayload
	}
	return s.repo.ListAttendanceByShift(ctx, shiftID)
}

// CurrentShift resolves the shift covering the current hour and returns it
// with today's attendance records for that shift.
func (s *Service) CurrentShift(ctx context.Context) (domain.CurrentShiftResponse, error) {
	now := time.Now().UTC()
	shift, err := s.currentShift(ctx, now)
	if err != nil {
		return domain.CurrentShiftResponse{}, err
	}

	records, err := s.repo.ListAttendanceByShift(ctx, shift.ID)
	if err != nil {
		return domain.CurrentShiftResponse{}, err
	}

	today := now.Truncate(24 * time.Hour)
	filtered := make([]domain.Attendance, 0, len(records))
	for _, att := range records {
		if att.Date.UTC().Truncate(24 * time.Hour).Equal(today) {
			filtered = append(filtered, att)
		}
	}

	return domain.CurrentShiftResponse{Shift: shift, Attendance: filtered}, nil
}

// MonthlyAttendance lists records whose date falls inside the given month.
func (s *Service) MonthlyAttendance(ctx context.Context, year int, month int) ([]domain.Attendance, error) {
	if year < 2000 || year > 2200 || month < 1 || month > 12 {
		return nil, store.ErrInvalidPayload
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.repo.ListAttendanceBetween(ctx, from, to)
}

func (s *Service) currentShift(ctx context.Context, now time.Time) (domain.Shift, error) {
	shifts, err := s.repo.ListShifts(ctx)
	if err != nil {
		return domain.Shift{}, err
	}

	hour := now.Hour()
	for _, shift := range shifts {
		if shiftCoversHour(shift, hour) {
			return shift, nil
		}
	}
	return domain.Shift{}, fmt.Errorf("%w: no shift covers hour %d", store.ErrNotFound, hour)
}

// shiftCoversHour treats StartHour >= EndHour as a shift wrapping midnight.
func shiftCoversHour(shift domain.Shift, hour int) bool {
	if shift.StartHour < shift.EndHour {
		return hour >= shift.StartHour && hour < shift.EndHour
	}
	return hour >= shift.StartHour || hour < shift.EndHour
}

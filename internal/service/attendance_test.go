package service

import (
	"context"
	"errors"
	"testing"

	"rhive/backoffice/internal/domain"
	"rhive/backoffice/internal/store"
)

func TestCheckInAssignsShiftFromClock(t *testing.T) {
	svc, _ := newTestService()

	att, err := svc.CheckIn(context.Background(), domain.CheckInRequest{EmployeeID: "emp-001"})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if att.ShiftID == "" {
		t.Fatalf("expected shift id assigned from the current hour")
	}
	if att.Status != domain.AttendanceStatusPresent {
		t.Fatalf("expected present status, got %s", att.Status)
	}
	if att.CheckIn == nil {
		t.Fatalf("expected check-in timestamp")
	}
}

func TestCheckInRejectsDoubleCheckIn(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, domain.CheckInRequest{EmployeeID: "emp-001"}); err != nil {
		t.Fatalf("first check in: %v", err)
	}
	_, err := svc.CheckIn(ctx, domain.CheckInRequest{EmployeeID: "emp-001"})
	if !errors.Is(err, store.ErrInvalidPayload) {
		t.Fatalf("expected second check-in to be rejected, got %v", err)
	}
}

func TestCheckOutClosesOpenAttendance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, domain.CheckInRequest{EmployeeID: "emp-001"}); err != nil {
		t.Fatalf("check in: %v", err)
	}

	att, err := svc.CheckOut(ctx, domain.CheckOutRequest{EmployeeID: "emp-001"})
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if att.CheckOut == nil {
		t.Fatalf("expected check-out timestamp")
	}

	// With the record closed, a fresh check-in is allowed again.
	if _, err := svc.CheckIn(ctx, domain.CheckInRequest{EmployeeID: "emp-001"}); err != nil {
		t.Fatalf("re-check-in after checkout: %v", err)
	}
}

func TestCheckOutWithoutOpenAttendance(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CheckOut(context.Background(), domain.CheckOutRequest{EmployeeID: "emp-001"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLeaveRequestAndApproval(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	att, err := svc.RequestLeave(ctx, domain.LeaveRequest{
		EmployeeID: "emp-002",
		Date:       "2026-09-01",
		Reason:     "family event",
	})
	if err != nil {
		t.Fatalf("request leave: %v", err)
	}
	if att.Status != domain.AttendanceStatusLeavePending {
		t.Fatalf("expected pending status, got %s", att.Status)
	}

	staffCtx := WithActor(ctx, domain.Actor{Username: "sari", Role: domain.RoleStaff})
	if _, err := svc.ApproveLeave(staffCtx, att.ID); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected admin requirement, got %v", err)
	}

	adminCtx := WithActor(ctx, domain.Actor{Username: "admin", Role: domain.RoleAdmin})
	approved, err := svc.ApproveLeave(adminCtx, att.ID)
	if err != nil {
		t.Fatalf("approve leave: %v", err)
	}
	if approved.Status != domain.AttendanceStatusLeaveApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}

	// Re-approving an already approved record is invalid.
	if _, err := svc.ApproveLeave(adminCtx, att.ID); !errors.Is(err, store.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload on re-approval, got %v", err)
	}
}

func TestRequestLeaveRequiresReason(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.RequestLeave(context.Background(), domain.LeaveRequest{EmployeeID: "emp-002"})
	if !errors.Is(err, store.ErrInvalidPayload) {
		t.Fatalf("expected invalid payload, got %v", err)
	}
}

func TestMonthlyAttendanceFiltersByMonth(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	inMonth, err := svc.RequestLeave(ctx, domain.LeaveRequest{
		EmployeeID: "emp-001",
		Date:       "2026-05-10",
		Reason:     "medical",
	})
	if err != nil {
		t.Fatalf("request leave: %v", err)
	}
	if _, err := svc.RequestLeave(ctx, domain.LeaveRequest{
		EmployeeID: "emp-001",
		Date:       "2026-06-02",
		Reason:     "medical",
	}); err != nil {
		t.Fatalf("request leave: %v", err)
	}

	records, err := svc.MonthlyAttendance(ctx, 2026, 5)
	if err != nil {
		t.Fatalf("monthly attendance: %v", err)
	}
	if len(records) != 1 || records[0].ID != inMonth.ID {
		t.Fatalf("expected only the May record, got %+v", records)
	}
}

func TestMonthlyAttendanceValidatesInput(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.MonthlyAttendance(context.Background(), 2026, 13); !errors.Is(err, store.ErrInvalidPayload) {
		t.Fatalf("expected invalid month to be rejected, got %v", err)
	}
	if _, err := svc.MonthlyAttendance(context.Background(), 99, 5); !errors.Is(err, store.ErrInvalidPayload) {
		t.Fatalf("expected invalid year to be rejected, got %v", err)
	}
}

func TestShiftCoversHourWrapsMidnight(t *testing.T) {
	night := domain.Shift{ID: "shift-night", StartHour: 22, EndHour: 6}

	for _, hour := range []int{22, 23, 0, 2, 5} {
		if !shiftCoversHour(night, hour) {
			t.Fatalf("expected night shift to cover hour %d", hour)
		}
	}
	for _, hour := range []int{6, 10, 21} {
		if shiftCoversHour(night, hour) {
			t.Fatalf("expected night shift not to cover hour %d", hour)
		}
	}

	morning := domain.Shift{ID: "shift-morning", StartHour: 6, EndHour: 14}
	if !shiftCoversHour(morning, 6) || shiftCoversHour(morning, 14) {
		t.Fatalf("expected half-open [6,14) coverage")
	}
}

func TestCurrentShiftListsTodaysRecords(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	checkedIn, err := svc.CheckIn(ctx, domain.CheckInRequest{EmployeeID: "emp-001"})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	resp, err := svc.CurrentShift(ctx)
	if err != nil {
		t.Fatalf("current shift: %v", err)
	}
	if resp.Shift.ID != checkedIn.ShiftID {
		t.Fatalf("expected current shift %s, got %s", checkedIn.ShiftID, resp.Shift.ID)
	}
	found := false
	for _, att := range resp.Attendance {
		if att.ID == checkedIn.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected today's check-in in current shift attendance")
	}
}

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rhive/backoffice/internal/domain"
	"rhive/backoffice/internal/store"
)

func TestAdjustItemStockAppliesSignedDelta(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if err := s.AdjustItemStock(ctx, "itm-001", -5); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if err := s.AdjustItemStock(ctx, "itm-001", 2); err != nil {
		t.Fatalf("increment: %v", err)
	}

	items, err := s.GetItemsByIDs(ctx, []string{"itm-001"})
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got := items["itm-001"].Stock; got != 117 {
		t.Fatalf("expected stock 117, got %d", got)
	}
}

func TestAdjustItemStockUnknownItemIsNoop(t *testing.T) {
	s := NewSeeded()

	if err := s.AdjustItemStock(context.Background(), "itm-ghost", -3); err != nil {
		t.Fatalf("expected no error for unknown item, got %v", err)
	}
}

func TestAdjustItemStockConcurrentDeltasCommute(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AdjustItemStock(ctx, "itm-003", -1)
		}()
	}
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AdjustItemStock(ctx, "itm-003", 1)
		}()
	}
	wg.Wait()

	items, err := s.GetItemsByIDs(ctx, []string{"itm-003"})
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got := items["itm-003"].Stock; got != 140 {
		t.Fatalf("expected stock 140 after concurrent deltas, got %d", got)
	}
}

func TestCreateSaleGeneratesIDAndDate(t *testing.T) {
	s := NewSeeded()

	created, err := s.CreateSale(context.Background(), domain.Sale{
		UserID: "emp-001",
		Items:  []domain.SaleLine{{ItemID: "itm-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Date.IsZero() {
		t.Fatalf("expected default date")
	}
}

func TestSaleClonesAreIsolated(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	created, err := s.CreateSale(ctx, domain.Sale{
		UserID: "emp-001",
		Items:  []domain.SaleLine{{ItemID: "itm-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	created.Items[0].Quantity = 99

	fetched, err := s.GetSaleByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get sale: %v", err)
	}
	if fetched.Items[0].Quantity != 1 {
		t.Fatalf("expected stored quantity 1, got %d", fetched.Items[0].Quantity)
	}
}

func TestDeleteSaleReturnsDeletedRecord(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	created, err := s.CreateSale(ctx, domain.Sale{
		UserID: "emp-001",
		Items:  []domain.SaleLine{{ItemID: "itm-002", Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}

	deleted, err := s.DeleteSale(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete sale: %v", err)
	}
	if len(deleted.Items) != 1 || deleted.Items[0].Quantity != 4 {
		t.Fatalf("expected deleted sale lines returned, got %+v", deleted.Items)
	}

	if _, err := s.DeleteSale(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestListSaleTuplesFiltersBySince(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	old := time.Now().UTC().AddDate(-2, 0, 0)
	recent := time.Now().UTC().AddDate(0, 0, -2)
	for _, sale := range []domain.Sale{
		{UserID: "emp-001", Date: old, Items: []domain.SaleLine{{ItemID: "itm-001", Quantity: 9}}},
		{UserID: "emp-001", Date: recent, Items: []domain.SaleLine{{ItemID: "itm-001", Quantity: 2}}},
	} {
		if _, err := s.CreateSale(ctx, sale); err != nil {
			t.Fatalf("create sale: %v", err)
		}
	}

	tuples, err := s.ListSaleTuples(ctx, time.Now().UTC().AddDate(-1, 0, 0))
	if err != nil {
		t.Fatalf("list tuples: %v", err)
	}
	if len(tuples) != 1 || tuples[0].Quantity != 2 {
		t.Fatalf("expected only the recent tuple, got %+v", tuples)
	}
}

func TestGetOpenAttendanceMatchesDayAndOpenState(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	now := time.Now().UTC()
	checkIn := now
	att, err := s.CreateAttendance(ctx, domain.Attendance{
		EmployeeID: "emp-001",
		ShiftID:    "shift-morning",
		Date:       now,
		CheckIn:    &checkIn,
		Status:     domain.AttendanceStatusPresent,
	})
	if err != nil {
		t.Fatalf("create attendance: %v", err)
	}

	open, err := s.GetOpenAttendance(ctx, "emp-001", now)
	if err != nil {
		t.Fatalf("get open attendance: %v", err)
	}
	if open.ID != att.ID {
		t.Fatalf("expected open record %s, got %s", att.ID, open.ID)
	}

	checkOut := now.Add(8 * time.Hour)
	open.CheckOut = &checkOut
	if _, err := s.UpdateAttendance(ctx, *open); err != nil {
		t.Fatalf("update attendance: %v", err)
	}

	if _, err := s.GetOpenAttendance(ctx, "emp-001", now); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found after checkout, got %v", err)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	s := NewSeeded()

	err := s.CreateUser(context.Background(), domain.Employee{
		Name:     "Another Sari",
		Username: "sari",
		Password: "hash",
		Role:     domain.RoleStaff,
		Active:   true,
	})
	if !errors.Is(err, store.ErrInvalidPayload) {
		t.Fatalf("expected duplicate username to be rejected, got %v", err)
	}
}

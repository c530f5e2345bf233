package store

import (
	"context"
	"errors"
	"time"

	"rhive/backoffice/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidPayload = errors.New("invalid payload")
)

type Repository interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error)
	// AdjustItemStock applies a signed delta to the item's stock counter as a
	// single atomic operation. Adjusting an unknown item is a no-op.
	AdjustItemStock(ctx context.Context, itemID string, delta int) error

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSaleTuples(ctx context.Context, since time.Time) ([]domain.SaleTuple, error)

	GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.Employee, error)
	CreateUser(ctx context.Context, employee domain.Employee) error
	ListUsers(ctx context.Context) ([]domain.Employee, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error

	ListShifts(ctx context.Context) ([]domain.Shift, error)
	CreateAttendance(ctx context.Context, att domain.Attendance) (*domain.Attendance, error)
	GetAttendanceByID(ctx context.Context, id string) (*domain.Attendance, error)
	GetOpenAttendance(ctx context.Context, employeeID string, day time.Time) (*domain.Attendance, error)
	UpdateAttendance(ctx context.Context, att domain.Attendance) (*domain.Attendance, error)
	ListAttendance(ctx context.Context) ([]domain.Attendance, error)
	ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]domain.Attendance, error)
	ListAttendanceByShift(ctx context.Context, shiftID string) ([]domain.Attendance, error)
	ListAttendanceBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Attendance, error)
}

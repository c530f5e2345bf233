package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rhive/backoffice/internal/domain"
	"rhive/backoffice/internal/store"
	"rhive/backoffice/internal/xid"
)

type Store struct {
	mu             sync.RWMutex
	items          map[string]domain.Item
	salesByID      map[string]*domain.Sale
	employeesByID  map[string]domain.Employee
	shifts         []domain.Shift
	attendanceByID map[string]domain.Attendance
}

// seedEmployees builds the initial in-memory accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning. These credentials are never used in production (the backend uses
// PostgreSQL when DATABASE_URL is set).
func seedEmployees() map[string]domain.Employee {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	staffPwd := envOr("SEED_STAFF_PASSWORD", "staff123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_STAFF_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_STAFF_PASSWORD to override.")
	}

	now := time.Now().UTC()
	employees := map[string]domain.Employee{}
	for _, e := range []struct {
		id       string
		name     string
		username string
		password string
		role     string
	}{
		{"emp-admin", "Admin", "admin", adminPwd, domain.RoleAdmin},
		{"emp-001", "Sari Wulandari", "sari", staffPwd, domain.RoleStaff},
		{"emp-002", "Budi Santoso", "budi", staffPwd, domain.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", e.username, err)
		}
		employees[e.id] = domain.Employee{
			ID:        e.id,
			Name:      e.name,
			Username:  e.username,
			Password:  string(hash),
			Role:      e.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return employees
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	items := []domain.Item{
		{ID: "itm-001", ItemName: "Arabica Beans 1kg", Stock: 120, Supplier: "Java Highland Co", ReorderLevel: 20},
		{ID: "itm-002", ItemName: "Robusta Beans 1kg", Stock: 80, Supplier: "Java Highland Co", ReorderLevel: 15},
		{ID: "itm-003", ItemName: "Paper Cup 12oz (50pc)", Stock: 200, Supplier: "PackRight", ReorderLevel: 40},
		{ID: "itm-004", ItemName: "Full Cream Milk 1L", Stock: 60, Supplier: "DairyFresh", ReorderLevel: 24},
		{ID: "itm-005", ItemName: "Palm Sugar Syrup 500ml", Stock: 45, Supplier: "Nusantara Foods", ReorderLevel: 10},
		{ID: "itm-006", ItemName: "Matcha Powder 250g", Stock: 30, Supplier: "Kyo Trading", ReorderLevel: 8},
	}

	itemMap := make(map[string]domain.Item, len(items))
	for _, item := range items {
		itemMap[item.ID] = item
	}

	shifts := []domain.Shift{
		{ID: "shift-morning", Name: "Morning", StartHour: 6, EndHour: 14},
		{ID: "shift-evening", Name: "Evening", StartHour: 14, EndHour: 22},
		{ID: "shift-night", Name: "Night", StartHour: 22, EndHour: 6},
	}

	return &Store{
		items:          itemMap,
		salesByID:      make(map[string]*domain.Sale),
		employeesByID:  seedEmployees(),
		shifts:         shifts,
		attendanceByID: make(map[string]domain.Attendance),
	}
}

func (s *Store) ListItems(_ context.Context) ([]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b domain.Item) int {
		return cmpString(a.ItemName, b.ItemName)
	})

	return items, nil
}

func (s *Store) GetItemsByIDs(_ context.Context, ids []string) (map[string]domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Item, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			result[id] = item
		}
	}
	return result, nil
}

func (s *Store) AdjustItemStock(_ context.Context, itemID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		// Unknown references are skipped rather than rejected; sale payloads
		// are persisted as given.
		return nil
	}
	item.Stock += delta
	s.items[itemID] = item
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.UserID == "" {
		return nil, store.ErrInvalidPayload
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[sale.ID]; exists {
		return nil, store.ErrInvalidPayload
	}
	stored := cloneSale(&sale)
	s.salesByID[sale.ID] = stored
	return cloneSale(stored), nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		sales = append(sales, *cloneSale(sale))
	}

	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.Date.Equal(b.Date) {
			return cmpString(a.ID, b.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})

	return sales, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) UpdateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || sale.UserID == "" {
		return nil, store.ErrInvalidPayload
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[sale.ID]; !exists {
		return nil, store.ErrNotFound
	}
	stored := cloneSale(&sale)
	s.salesByID[sale.ID] = stored
	return cloneSale(stored), nil
}

func (s *Store) DeleteSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.salesByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.salesByID, id)
	return cloneSale(sale), nil
}

func (s *Store) ListSaleTuples(_ context.Context, since time.Time) ([]domain.SaleTuple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tuples := make([]domain.SaleTuple, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if sale.Date.Before(since) {
			continue
		}
		for _, line := range sale.Items {
			tuples = append(tuples, domain.SaleTuple{
				ItemID:   line.ItemID,
				UserID:   sale.UserID,
				Quantity: line.Quantity,
				Date:     sale.Date,
			})
		}
	}
	return tuples, nil
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Employee, len(ids))
	for _, id := range ids {
		if employee, ok := s.employeesByID[id]; ok {
			result[id] = employee
		}
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, employee domain.Employee) error {
	if employee.Username == "" || employee.Password == "" {
		return store.ErrInvalidPayload
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.employeesByID {
		if existing.Username == employee.Username {
			return store.ErrInvalidPayload
		}
	}
	s.employeesByID[employee.ID] = employee
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employeesByID))
	for _, employee := range s.employeesByID {
		employees = append(employees, employee)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmpString(a.Username, b.Username)
	})
	return employees, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, employee := range s.employeesByID {
		if employee.Username == username {
			employee.Password = password
			s.employeesByID[id] = employee
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) ListShifts(_ context.Context) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := make([]domain.Shift, len(s.shifts))
	copy(shifts, s.shifts)
	return shifts, nil
}

func (s *Store) CreateAttendance(_ context.Context, att domain.Attendance) (*domain.Attendance, error) {
	if att.EmployeeID == "" {
		return nil, store.ErrInvalidPayload
	}
	if att.ID == "" {
		att.ID = xid.New("att")
	}
	if att.Date.IsZero() {
		att.Date = dayOf(time.Now().UTC())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attendanceByID[att.ID] = att
	created := att
	return &created, nil
}

func (s *Store) GetAttendanceByID(_ context.Context, id string) (*domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	att, ok := s.attendanceByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	found := att
	return &found, nil
}

func (s *Store) GetOpenAttendance(_ context.Context, employeeID string, day time.Time) (*domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day = dayOf(day)
	for _, att := range s.attendanceByID {
		if att.EmployeeID != employeeID || att.CheckIn == nil || att.CheckOut != nil {
			continue
		}
		if dayOf(att.Date).Equal(day) {
			found := att
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateAttendance(_ context.Context, att domain.Attendance) (*domain.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.attendanceByID[att.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.attendanceByID[att.ID] = att
	updated := att
	return &updated, nil
}

func (s *Store) ListAttendance(_ context.Context) ([]domain.Attendance, error) {
	return s.listAttendanceWhere(func(domain.Attendance) bool { return true })
}

func (s *Store) ListAttendanceByEmployee(_ context.Context, employeeID string) ([]domain.Attendance, error) {
	return s.listAttendanceWhere(func(att domain.Attendance) bool {
		return att.EmployeeID == employeeID
	})
}

func (s *Store) ListAttendanceByShift(_ context.Context, shiftID string) ([]domain.Attendance, error) {
	return s.listAttendanceWhere(func(att domain.Attendance) bool {
		return att.ShiftID == shiftID
	})
}

func (s *Store) ListAttendanceBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Attendance, error) {
	return s.listAttendanceWhere(func(att domain.Attendance) bool {
		return !att.Date.Before(from) && att.Date.Before(to)
	})
}

func (s *Store) listAttendanceWhere(keep func(domain.Attendance) bool) ([]domain.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Attendance, 0, len(s.attendanceByID))
	for _, att := range s.attendanceByID {
		if keep(att) {
			result = append(result, att)
		}
	}
	slices.SortFunc(result, func(a, b domain.Attendance) int {
		if a.Date.Equal(b.Date) {
			return cmpString(a.ID, b.ID)
		}
		if a.Date.After(b.Date) {
			return -1
		}
		return 1
	})
	return result, nil
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}

func cloneSale(src *domain.Sale) *domain.Sale {
	if src == nil {
		return nil
	}
	dup := *src
	items := make([]domain.SaleLine, len(src.Items))
	copy(items, src.Items)
	dup.Items = items
	return &dup
}

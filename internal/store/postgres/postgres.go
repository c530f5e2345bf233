package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"rhive/backoffice/internal/domain"
	"rhive/backoffice/internal/store"
	"rhive/backoffice/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, stock, supplier, reorder_level
		FROM items
		ORDER BY item_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 128)
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.ItemName, &item.Stock, &item.Supplier, &item.ReorderLevel); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Store) GetItemsByIDs(ctx context.Context, ids []string) (map[string]domain.Item, error) {
	result := make(map[string]domain.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, stock, supplier, reorder_level
		FROM items
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.ItemName, &item.Stock, &item.Supplier, &item.ReorderLevel); err != nil {
			return nil, err
		}
		result[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// AdjustItemStock applies a delta-based update so concurrent adjustments on
// the same item never lose a write. An unknown item id affects zero rows and
// is not an error.
func (s *Store) AdjustItemStock(ctx context.Context, itemID string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1
	`, itemID, delta)
	return err
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.UserID == "" {
		return nil, store.ErrInvalidPayload
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, user_id, sale_date, created_at)
		VALUES ($1,$2,$3,now())
	`, sale.ID, sale.UserID, sale.Date)
	if err != nil {
		return nil, err
	}

	if err := insertSaleLines(ctx, tx, sale.ID, sale.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := sale
	return &created, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, sale_date
		FROM sales
		ORDER BY sale_date DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 128)
	index := make(map[string]int)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.UserID, &sale.Date); err != nil {
			return nil, err
		}
		sale.Date = sale.Date.UTC()
		sale.Items = []domain.SaleLine{}
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One pass over sale_items instead of a query per sale.
	lineRows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, item_id, quantity
		FROM sale_items
		ORDER BY sale_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var saleID string
		var line domain.SaleLine
		if err := lineRows.Scan(&saleID, &line.ItemID, &line.Quantity); err != nil {
			return nil, err
		}
		if i, ok := index[saleID]; ok {
			sales[i].Items = append(sales[i].Items, line)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, sale_date
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.UserID, &sale.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.Date = sale.Date.UTC()

	sale.Items, err = s.saleLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) UpdateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || sale.UserID == "" {
		return nil, store.ErrInvalidPayload
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET user_id = $2, sale_date = $3
		WHERE id = $1
	`, sale.ID, sale.UserID, sale.Date)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, sale.ID); err != nil {
		return nil, err
	}
	if err := insertSaleLines(ctx, tx, sale.ID, sale.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	updated := sale
	return &updated, nil
}

func (s *Store) DeleteSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := s.GetSaleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, id); err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) ListSaleTuples(ctx context.Context, since time.Time) ([]domain.SaleTuple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT si.item_id, sa.user_id, si.quantity, sa.sale_date
		FROM sale_items si
		JOIN sales sa ON sa.id = si.sale_id
		WHERE sa.sale_date >= $1
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tuples := make([]domain.SaleTuple, 0, 256)
	for rows.Next() {
		var tuple domain.SaleTuple
		if err := rows.Scan(&tuple.ItemID, &tuple.UserID, &tuple.Quantity, &tuple.Date); err != nil {
			return nil, err
		}
		tuple.Date = tuple.Date.UTC()
		tuples = append(tuples, tuple)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tuples, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.Employee, error) {
	result := make(map[string]domain.Employee, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, username, password, role, active, created_at
		FROM employees
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result[employee.ID] = employee
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) CreateUser(ctx context.Context, employee domain.Employee) error {
	if employee.Username == "" || employee.Password == "" {
		return store.ErrInvalidPayload
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, employee.ID, employee.Name, employee.Username, employee.Password, employee.Role, employee.Active, employee.CreatedAt)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, username, password, role, active, created_at
		FROM employees
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 32)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET password = $2
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, start_hour, end_hour
		FROM shifts
		ORDER BY start_hour
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, 8)
	for rows.Next() {
		var shift domain.Shift
		if err := rows.Scan(&shift.ID, &shift.Name, &shift.StartHour, &shift.EndHour); err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return shifts, nil
}

func (s *Store) CreateAttendance(ctx context.Context, att domain.Attendance) (*domain.Attendance, error) {
	if att.EmployeeID == "" {
		return nil, store.ErrInvalidPayload
	}
	if att.ID == "" {
		att.ID = xid.New("att")
	}
	if att.Date.IsZero() {
		att.Date = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (id, employee_id, shift_id, attendance_date, check_in, check_out, status, leave_reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, att.ID, att.EmployeeID, nullIfEmpty(att.ShiftID), att.Date, nullTime(att.CheckIn), nullTime(att.CheckOut), att.Status, att.LeaveReason)
	if err != nil {
		return nil, err
	}
	created := att
	return &created, nil
}

func (s *Store) GetAttendanceByID(ctx context.Context, id string) (*domain.Attendance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, COALESCE(shift_id, ''), attendance_date, check_in, check_out, status, leave_reason
		FROM attendance
		WHERE id = $1
	`, id)
	att, err := scanAttendanceRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return att, nil
}

func (s *Store) GetOpenAttendance(ctx context.Context, employeeID string, day time.Time) (*domain.Attendance, error) {
	from := day.UTC().Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)
	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, COALESCE(shift_id, ''), attendance_date, check_in, check_out, status, leave_reason
		FROM attendance
		WHERE employee_id = $1
		  AND attendance_date >= $2 AND attendance_date < $3
		  AND check_in IS NOT NULL AND check_out IS NULL
		LIMIT 1
	`, employeeID, from, to)
	att, err := scanAttendanceRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return att, nil
}

func (s *Store) UpdateAttendance(ctx context.Context, att domain.Attendance) (*domain.Attendance, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attendance
		SET shift_id = $2, attendance_date = $3, check_in = $4, check_out = $5, status = $6, leave_reason = $7
		WHERE id = $1
	`, att.ID, nullIfEmpty(att.ShiftID), att.Date, nullTime(att.CheckIn), nullTime(att.CheckOut), att.Status, att.LeaveReason)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := att
	return &updated, nil
}

func (s *Store) ListAttendance(ctx context.Context) ([]domain.Attendance, error) {
	return s.queryAttendance(ctx, `ORDER BY attendance_date DESC, id`)
}

func (s *Store) ListAttendanceByEmployee(ctx context.Context, employeeID string) ([]domain.Attendance, error) {
	return s.queryAttendance(ctx, `WHERE employee_id = $1 ORDER BY attendance_date DESC, id`, employeeID)
}

func (s *Store) ListAttendanceByShift(ctx context.Context, shiftID string) ([]domain.Attendance, error) {
	return s.queryAttendance(ctx, `WHERE shift_id = $1 ORDER BY attendance_date DESC, id`, shiftID)
}

func (s *Store) ListAttendanceBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Attendance, error) {
	return s.queryAttendance(ctx, `WHERE attendance_date >= $1 AND attendance_date < $2 ORDER BY attendance_date DESC, id`, from, to)
}

func (s *Store) queryAttendance(ctx context.Context, clause string, args ...any) ([]domain.Attendance, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, COALESCE(shift_id, ''), attendance_date, check_in, check_out, status, leave_reason
		FROM attendance
	`+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.Attendance, 0, 64)
	for rows.Next() {
		att, err := scanAttendanceRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendanceRow(row rowScanner) (*domain.Attendance, error) {
	var att domain.Attendance
	var checkIn, checkOut sql.NullTime
	if err := row.Scan(&att.ID, &att.EmployeeID, &att.ShiftID, &att.Date, &checkIn, &checkOut, &att.Status, &att.LeaveReason); err != nil {
		return nil, err
	}
	att.Date = att.Date.UTC()
	if checkIn.Valid {
		t := checkIn.Time.UTC()
		att.CheckIn = &t
	}
	if checkOut.Valid {
		t := checkOut.Time.UTC()
		att.CheckOut = &t
	}
	return &att, nil
}

func scanEmployee(row rowScanner) (domain.Employee, error) {
	var employee domain.Employee
	if err := row.Scan(&employee.ID, &employee.Name, &employee.Username, &employee.Password, &employee.Role, &employee.Active, &employee.CreatedAt); err != nil {
		return domain.Employee{}, err
	}
	employee.CreatedAt = employee.CreatedAt.UTC()
	return employee, nil
}

func insertSaleLines(ctx context.Context, tx *sql.Tx, saleID string, lines []domain.SaleLine) error {
	for position, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, position, item_id, quantity)
			VALUES ($1,$2,$3,$4)
		`, saleID, position, line.ItemID, line.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saleLines(ctx context.Context, saleID string) ([]domain.SaleLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, quantity
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY position
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]domain.SaleLine, 0, 8)
	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ItemID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

package domain

import "time"

// Item records are owned by the procurement system; this service only reads
// them and adjusts the stock counter.
type Item struct {
	ID           string `json:"id"`
	ItemName     string `json:"item_name"`
	Stock        int    `json:"stock"`
	Supplier     string `json:"supplier"`
	ReorderLevel int    `json:"reorder_level"`
}

type SaleLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type Sale struct {
	ID     string     `json:"id"`
	UserID string     `json:"user_id"`
	Date   time.Time  `json:"date"`
	Items  []SaleLine `json:"items"`
}

type SaleCreateRequest struct {
	UserID string     `json:"user_id"`
	Date   *time.Time `json:"date,omitempty"`
	Items  []SaleLine `json:"items"`
}

type SaleUpdateRequest struct {
	UserID *string     `json:"user_id,omitempty"`
	Date   *time.Time  `json:"date,omitempty"`
	Items  *[]SaleLine `json:"items,omitempty"`
}

// ExpandedSaleLine carries the full item record in place of the stored
// reference. Item is nil when the referenced record no longer exists.
type ExpandedSaleLine struct {
	Item     *Item `json:"item"`
	Quantity int   `json:"quantity"`
}

type SaleDetail struct {
	ID     string             `json:"id"`
	UserID string             `json:"user_id"`
	Date   time.Time          `json:"date"`
	Items  []ExpandedSaleLine `json:"items"`
}

type SaleListEntry struct {
	ID       string             `json:"id"`
	UserID   string             `json:"user_id"`
	UserName string             `json:"user_name"`
	Date     time.Time          `json:"date"`
	Items    []ExpandedSaleLine `json:"items"`
}

// SaleTuple is one flattened sale line used by the frequently-sold report.
type SaleTuple struct {
	ItemID   string
	UserID   string
	Quantity int
	Date     time.Time
}

type FrequentItemEntry struct {
	ID                string `json:"id"`
	ItemName          string `json:"item_name"`
	TotalQuantitySold int    `json:"totalQuantitySold"`
	Stock             int    `json:"stock"`
	Supplier          string `json:"supplier"`
	ReorderLevel      int    `json:"reorder_level"`
	UserName          string `json:"user_name"`
}

type FrequentlySoldReport struct {
	Weekly  []FrequentItemEntry `json:"weekly"`
	Monthly []FrequentItemEntry `json:"monthly"`
	Yearly  []FrequentItemEntry `json:"yearly"`
}

// Employee doubles as the user store for report joins and as the login
// account record. Password holds a bcrypt hash and is never serialized.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
}

type Attendance struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id"`
	ShiftID     string     `json:"shift_id"`
	Date        time.Time  `json:"date"`
	CheckIn     *time.Time `json:"check_in,omitempty"`
	CheckOut    *time.Time `json:"check_out,omitempty"`
	Status      string     `json:"status"`
	LeaveReason string     `json:"leave_reason,omitempty"`
}

type CheckInRequest struct {
	EmployeeID string `json:"employee_id"`
	ShiftID    string `json:"shift_id,omitempty"`
}

type CheckOutRequest struct {
	EmployeeID string `json:"employee_id"`
}

type LeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date,omitempty"`
	Reason     string `json:"reason"`
}

type CurrentShiftResponse struct {
	Shift      Shift        `json:"shift"`
	Attendance []Attendance `json:"attendance"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

const (
	AttendanceStatusPresent       = "present"
	AttendanceStatusLeavePending  = "leave_pending"
	AttendanceStatusLeaveApproved = "leave_approved"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

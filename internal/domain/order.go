package domain

import "time"

// OrderStatus is the linear order workflow. Completed and Cancelled are
// terminal and reachable from any active state.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusCooking   OrderStatus = "Cooking"
	StatusReady     OrderStatus = "Ready"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

// ActiveStatuses are the statuses that occupy a table.
var ActiveStatuses = []OrderStatus{StatusPending, StatusCooking, StatusReady}

// Active reports whether the status occupies a table.
func (s OrderStatus) Active() bool {
	return s == StatusPending || s == StatusCooking || s == StatusReady
}

// Terminal reports whether the status is final.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentMethod stamps how a completed order was settled.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "Cash"
	PayCard     PaymentMethod = "Card"
	PayTransfer PaymentMethod = "Transfer"
)

// Order is a persisted customer order (orders row). TableID points at a
// Table, or TakeawayTableID for non-physical flows.
type Order struct {
	ID            string        `db:"id" json:"id"`
	TableID       string        `db:"table_id" json:"table_id"`
	Status        OrderStatus   `db:"status" json:"status"`
	Guests        int           `db:"guests" json:"guests"`
	TotalAmount   float64       `db:"total_amount" json:"total_amount"`
	StaffName     string        `db:"staff_name" json:"staff_name"`
	UserID        string        `db:"user_id" json:"user_id"`
	Paid          bool          `db:"paid" json:"paid"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	Items         []OrderItem   `json:"items,omitempty"`
}

// TakeawayTableID is the sentinel table id for orders not bound to a
// physical table.
const TakeawayTableID = "TAKEAWAY"

// OrderItem is a line of an order (order_items row). Price is the snapshot
// taken at order time, not the live menu price.
type OrderItem struct {
	ID         int64   `db:"id" json:"id"`
	OrderID    string  `db:"order_id" json:"order_id"`
	MenuItemID int64   `db:"menu_item_id" json:"menu_item_id"`
	Name       string  `db:"name" json:"name"`
	Quantity   int     `db:"quantity" json:"quantity"`
	Price      float64 `db:"price" json:"price"`
}

package domain

// TableStatus is the derived occupancy of a table.
type TableStatus string

const (
	TableAvailable TableStatus = "Available"
	TableOccupied  TableStatus = "Occupied"
)

// TableView is the derived join of a Table with its one active order, if
// any. It is rebuilt wholesale on every mirror refresh and never persisted.
type TableView struct {
	Table
	Status      TableStatus `json:"status"`
	Guests      int         `json:"guests"`
	OrderID     string      `json:"order_id,omitempty"`
	OrderStatus OrderStatus `json:"order_status,omitempty"`
	OrderTotal  float64     `json:"order_total"`
	Waiter      string      `json:"waiter,omitempty"`
	TimeElapsed string      `json:"time_elapsed,omitempty"`
	Items       []OrderItem `json:"items"`
}

// Occupied reports whether the table has an active order.
func (v TableView) Occupied() bool {
	return v.Status == TableOccupied
}

package domain

// MenuItem is a sellable item (menu_items row). Stock is the manual
// finished-goods counter decremented on order completion.
type MenuItem struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Category string  `db:"category" json:"category"`
	Price    float64 `db:"price" json:"price"`
	Stock    int     `db:"stock" json:"stock"`
}

// InStock reports whether the item can still be added to a cart.
func (m MenuItem) InStock() bool {
	return m.Stock > 0
}

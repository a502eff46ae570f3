package service

import "github.com/ducnt198x/resbarpos/internal/domain"

// CartLine is one menu item in a draft order.
type CartLine struct {
	MenuItemID int64
	Name       string
	Quantity   int
	Price      float64
}

// Cart is the draft item list of the order editor. It lives in memory
// only; nothing hits the store until the order is confirmed.
type Cart struct {
	lines []CartLine
}

// Add puts one unit of a menu item in the cart, merging into an
// existing line for the same item.
func (c *Cart) Add(item domain.MenuItem) {
	for i := range c.lines {
		if c.lines[i].MenuItemID == item.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   1,
		Price:      item.Price,
	})
}

// SetQuantity adjusts a line's quantity, floored at one. Removing a
// line is an explicit Remove, never a zero quantity.
func (c *Cart) SetQuantity(menuItemID int64, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.lines {
		if c.lines[i].MenuItemID == menuItemID {
			c.lines[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Remove drops a line from the cart.
func (c *Cart) Remove(menuItemID int64) bool {
	for i := range c.lines {
		if c.lines[i].MenuItemID == menuItemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total is the sum of price times quantity across all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.lines) == 0 }

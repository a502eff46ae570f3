package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
	"github.com/ducnt198x/resbarpos/internal/repository"
)

// orderEditor is one open order panel: the draft cart plus the menu
// snapshot it was opened against.
type orderEditor struct {
	cart   Cart
	menu   map[int64]domain.MenuItem
	guests int
}

// OrderService drives the order lifecycle from a table: the draft
// cart, confirmation, payment, cancellation, transfer and merge.
// Editors are keyed by table id; domain.TakeawayTableID is a valid key
// for walk-in orders that never touch the floor plan.
type OrderService struct {
	store  repository.Store
	mirror *Mirror
	logger *zap.Logger

	mu      sync.Mutex
	editors map[string]*orderEditor

	now        func() time.Time
	newOrderID func(time.Time) string
}

// NewOrderService wires the order lifecycle against a store and the
// floor-plan mirror.
func NewOrderService(store repository.Store, mirror *Mirror, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:      store,
		mirror:     mirror,
		logger:     logger,
		editors:    make(map[string]*orderEditor),
		now:        time.Now,
		newOrderID: defaultOrderID,
	}
}

// defaultOrderID derives a short display id from the wall clock: "#"
// followed by the last six digits of the millisecond timestamp.
func defaultOrderID(t time.Time) string {
	return fmt.Sprintf("#%06d", t.UnixMilli()%1_000_000)
}

// OpenOrderEditor opens the order panel for a table. The menu is
// fetched fresh, and if the table already carries an active order its
// items preload the cart so confirmation edits in place.
func (s *OrderService) OpenOrderEditor(ctx context.Context, tableID string) ([]domain.MenuItem, []CartLine, error) {
	var existing *domain.TableView
	if tableID != domain.TakeawayTableID {
		view, ok := s.mirror.Find(tableID)
		if !ok {
			return nil, nil, ErrUnknownTable
		}
		existing = &view
	}

	menu, err := s.store.Menu.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load menu: %w", err)
	}

	editor := &orderEditor{
		menu:   make(map[int64]domain.MenuItem, len(menu)),
		guests: 2,
	}
	for _, item := range menu {
		editor.menu[item.ID] = item
	}
	if existing != nil && existing.Occupied() {
		editor.guests = existing.Guests
		for _, it := range existing.Items {
			editor.cart.lines = append(editor.cart.lines, CartLine{
				MenuItemID: it.MenuItemID,
				Name:       it.Name,
				Quantity:   it.Quantity,
				Price:      it.Price,
			})
		}
	}

	s.mu.Lock()
	s.editors[tableID] = editor
	s.mu.Unlock()
	return menu, editor.cart.Lines(), nil
}

// CloseOrderEditor discards the draft without writing anything.
func (s *OrderService) CloseOrderEditor(tableID string) {
	s.mu.Lock()
	delete(s.editors, tableID)
	s.mu.Unlock()
}

func (s *OrderService) editor(tableID string) (*orderEditor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ed, ok := s.editors[tableID]
	if !ok {
		return nil, ErrNoCart
	}
	return ed, nil
}

// AddCartItem puts one unit of a menu item in the table's cart. Items
// with zero stock are rejected at add time, before any order exists.
func (s *OrderService) AddCartItem(tableID string, menuItemID int64) error {
	ed, err := s.editor(tableID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := ed.menu[menuItemID]
	if !ok {
		return ErrUnknownMenuItem
	}
	if !item.InStock() {
		return ErrSoldOut
	}
	ed.cart.Add(item)
	return nil
}

// UpdateCartQty sets a line's quantity. Values below one clamp to one,
// so repeated decrements idle at a single unit instead of vanishing.
func (s *OrderService) UpdateCartQty(tableID string, menuItemID int64, quantity int) error {
	ed, err := s.editor(tableID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ed.cart.SetQuantity(menuItemID, quantity) {
		return ErrUnknownMenuItem
	}
	return nil
}

// RemoveCartItem drops a line from the cart.
func (s *OrderService) RemoveCartItem(tableID string, menuItemID int64) error {
	ed, err := s.editor(tableID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ed.cart.Remove(menuItemID) {
		return ErrUnknownMenuItem
	}
	return nil
}

// CartLines returns the current draft for a table.
func (s *OrderService) CartLines(tableID string) ([]CartLine, float64, error) {
	ed, err := s.editor(tableID)
	if err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return ed.cart.Lines(), ed.cart.Total(), nil
}

// ConfirmOrder commits the draft. A table without an active order gets
// a brand new Pending order attributed to the confirming user; a table
// that already has one gets its totals, guest count and items rewritten
// in place with the status untouched. An empty cart on a fresh order is
// rejected.
func (s *OrderService) ConfirmOrder(ctx context.Context, tableID, userID string) (*domain.Order, error) {
	ed, err := s.editor(tableID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	lines := ed.cart.Lines()
	total := ed.cart.Total()
	guests := ed.guests
	s.mu.Unlock()

	var existingID string
	if view, ok := s.mirror.Find(tableID); ok && view.Occupied() {
		existingID = view.OrderID
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			Price:      l.Price,
		})
	}

	var order *domain.Order
	if existingID != "" {
		if err := s.store.Orders.Update(ctx, existingID, total, guests); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		if err := s.store.Orders.ReplaceItems(ctx, existingID, items); err != nil {
			return nil, fmt.Errorf("failed to replace order items: %w", err)
		}
		order, err = s.store.Orders.Get(ctx, existingID)
		if err != nil {
			return nil, err
		}
	} else {
		if len(items) == 0 {
			return nil, ErrEmptyCart
		}
		staff := "Unknown"
		if user, err := s.store.Users.Get(ctx, userID); err == nil {
			staff = user.FullName
		}
		now := s.now()
		order = &domain.Order{
			ID:          s.newOrderID(now),
			TableID:     tableID,
			Status:      domain.StatusPending,
			Guests:      guests,
			TotalAmount: total,
			StaffName:   staff,
			UserID:      userID,
			CreatedAt:   now,
			Items:       items,
		}
		if err := s.store.Orders.Insert(ctx, *order); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
	}

	s.CloseOrderEditor(tableID)
	s.refreshOrders(ctx)
	return order, nil
}

// UpdateGuestCount changes the party size, floored at one. On an
// occupied table the write lands immediately; on a free table it only
// updates the draft and rides along with the next confirmation.
func (s *OrderService) UpdateGuestCount(ctx context.Context, tableID string, guests int) error {
	if guests < 1 {
		guests = 1
	}

	if view, ok := s.mirror.Find(tableID); ok && view.Occupied() {
		if err := s.store.Orders.UpdateGuests(ctx, view.OrderID, guests); err != nil {
			return fmt.Errorf("failed to update guests: %w", err)
		}
		s.mu.Lock()
		if ed, ok := s.editors[tableID]; ok {
			ed.guests = guests
		}
		s.mu.Unlock()
		s.refreshOrders(ctx)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ed, ok := s.editors[tableID]
	if !ok {
		return ErrNoActiveOrder
	}
	ed.guests = guests
	return nil
}

// CompletePayment settles the table's active order: each item's
// quantity is deducted from menu stock (floored at zero), then the
// order is marked completed with the payment method recorded.
func (s *OrderService) CompletePayment(ctx context.Context, tableID string, method domain.PaymentMethod) error {
	view, ok := s.mirror.Find(tableID)
	if !ok {
		return ErrUnknownTable
	}
	if !view.Occupied() {
		return ErrNoActiveOrder
	}

	order, err := s.store.Orders.Get(ctx, view.OrderID)
	if err != nil {
		return err
	}
	if !order.Status.Active() {
		return ErrOrderFinished
	}

	for _, item := range order.Items {
		if err := s.store.Menu.DeductStock(ctx, item.MenuItemID, item.Quantity); err != nil {
			s.logger.Warn("Stock deduction failed",
				zap.Int64("menu_item_id", item.MenuItemID),
				zap.Error(err),
			)
		}
	}

	if err := s.store.Orders.Complete(ctx, order.ID, method); err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	s.CloseOrderEditor(tableID)
	s.refreshOrders(ctx)
	return nil
}

// CancelOrder voids the table's active order. Stock is untouched: it
// was never deducted for an unpaid order.
func (s *OrderService) CancelOrder(ctx context.Context, tableID string) error {
	view, ok := s.mirror.Find(tableID)
	if !ok {
		return ErrUnknownTable
	}
	if !view.Occupied() {
		return ErrNoActiveOrder
	}

	if err := s.store.Orders.SetStatus(ctx, view.OrderID, domain.StatusCancelled); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	s.CloseOrderEditor(tableID)
	s.refreshOrders(ctx)
	return nil
}

// TransferOrder moves the source table's active order to a free table.
// The order keeps its id, items, totals and elapsed time; only the
// table assignment changes.
func (s *OrderService) TransferOrder(ctx context.Context, fromTableID, toTableID string) error {
	from, ok := s.mirror.Find(fromTableID)
	if !ok {
		return ErrUnknownTable
	}
	if !from.Occupied() {
		return ErrNoActiveOrder
	}
	to, ok := s.mirror.Find(toTableID)
	if !ok {
		return ErrUnknownTable
	}
	if to.Occupied() {
		return ErrTargetOccupied
	}

	if err := s.store.Orders.MoveTable(ctx, from.OrderID, toTableID); err != nil {
		return fmt.Errorf("failed to transfer order: %w", err)
	}
	s.refreshOrders(ctx)
	return nil
}

// MergeOrder folds the source table's order into the target table's
// order: items re-parent, totals add up, the source order disappears
// and the source table frees.
func (s *OrderService) MergeOrder(ctx context.Context, fromTableID, toTableID string) error {
	from, ok := s.mirror.Find(fromTableID)
	if !ok {
		return ErrUnknownTable
	}
	if !from.Occupied() {
		return ErrNoActiveOrder
	}
	to, ok := s.mirror.Find(toTableID)
	if !ok {
		return ErrUnknownTable
	}
	if !to.Occupied() {
		return ErrTargetHasNoOrder
	}

	if err := s.store.Orders.Merge(ctx, from.OrderID, to.OrderID); err != nil {
		return fmt.Errorf("failed to merge orders: %w", err)
	}
	s.CloseOrderEditor(fromTableID)
	s.refreshOrders(ctx)
	return nil
}

// refreshOrders re-merges order state over the mirror after a
// mutation. Geometry is never touched, so this is safe mid-edit.
func (s *OrderService) refreshOrders(ctx context.Context) {
	if err := s.mirror.RefreshOrders(ctx); err != nil {
		s.logger.Warn("Order refresh after mutation failed", zap.Error(err))
	}
}

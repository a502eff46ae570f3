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

// Mirror maintains the locally held join of tables and active orders,
// safe to read synchronously by the rendering layer. The view list is
// rebuilt wholesale on every refresh and never patched in place; the
// policy for realtime pushes is "last full refetch wins".
//
// Ownership discipline: the Mirror owns status/items/order fields of
// each view; the floor-plan controller borrows a view's geometry fields
// during a gesture through SetGeometry/UpdateTable, which touch nothing
// else. Refreshing with RefreshOrders rebuilds occupancy over the
// locally held geometry, so an in-flight drag is never clobbered by an
// orders push.
type Mirror struct {
	tables repository.TablesRepository
	orders repository.OrdersRepository
	logger *zap.Logger

	// now is swappable for elapsed-time tests.
	now func() time.Time

	mu    sync.RWMutex
	views []domain.TableView
}

// NewMirror creates an empty mirror; call Refresh to populate it.
func NewMirror(tables repository.TablesRepository, orders repository.OrdersRepository, logger *zap.Logger) *Mirror {
	return &Mirror{
		tables: tables,
		orders: orders,
		logger: logger,
		now:    time.Now,
	}
}

// Snapshot returns a copy of the current merged view list.
func (m *Mirror) Snapshot() []domain.TableView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.TableView, len(m.views))
	copy(out, m.views)
	return out
}

// Find returns the view for one table.
func (m *Mirror) Find(id string) (domain.TableView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.views {
		if v.ID == id {
			return v, true
		}
	}
	return domain.TableView{}, false
}

// Tables returns the current table rows (local geometry included) for
// a layout save.
func (m *Mirror) Tables() []domain.Table {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tables := make([]domain.Table, 0, len(m.views))
	for _, v := range m.views {
		tables = append(tables, v.Table)
	}
	return tables
}

// Refresh refetches both collections and rebuilds the view list.
func (m *Mirror) Refresh(ctx context.Context) error {
	tables, err := m.tables.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tables: %w", err)
	}
	orders, err := m.orders.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch active orders: %w", err)
	}

	views := m.build(tables, orders)
	m.mu.Lock()
	m.views = views
	m.mu.Unlock()
	return nil
}

// RefreshOrders refetches active orders only and re-merges them over
// the locally held geometry. Used while the layout is dirty or a
// gesture is in flight, so occupancy stays live without ever touching
// in-flight geometry.
func (m *Mirror) RefreshOrders(ctx context.Context) error {
	orders, err := m.orders.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch active orders: %w", err)
	}

	m.mu.Lock()
	tables := make([]domain.Table, 0, len(m.views))
	for _, v := range m.views {
		tables = append(tables, v.Table)
	}
	m.views = m.build(tables, orders)
	m.mu.Unlock()
	return nil
}

// SetGeometry writes a gesture's geometry into one view. Pure local
// update; nothing is persisted until the layout is saved.
func (m *Mirror) SetGeometry(id string, x, y, width, height float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.views {
		if m.views[i].ID == id {
			m.views[i].X = x
			m.views[i].Y = y
			m.views[i].Width = width
			m.views[i].Height = height
			return true
		}
	}
	return false
}

// UpdateTable applies a property edit (rename, reshape, reseat) to one
// view's table fields.
func (m *Mirror) UpdateTable(id string, apply func(*domain.Table)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.views {
		if m.views[i].ID == id {
			apply(&m.views[i].Table)
			return true
		}
	}
	return false
}

// InsertLocal adds a freshly created table as Available. It becomes
// persistent on the next layout save.
func (m *Mirror) InsertLocal(t domain.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, domain.TableView{
		Table:  t,
		Status: domain.TableAvailable,
		Items:  []domain.OrderItem{},
	})
}

// RemoveLocal drops a deleted table from the view list.
func (m *Mirror) RemoveLocal(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.views {
		if m.views[i].ID == id {
			m.views = append(m.views[:i], m.views[i+1:]...)
			return
		}
	}
}

func (m *Mirror) build(tables []domain.Table, orders []domain.Order) []domain.TableView {
	now := m.now()

	// At most one active order per table is a system invariant; if the
	// store ever holds two, the earliest-created wins here.
	byTable := make(map[string]*domain.Order, len(orders))
	for i := range orders {
		o := &orders[i]
		if cur, ok := byTable[o.TableID]; !ok || o.CreatedAt.Before(cur.CreatedAt) {
			byTable[o.TableID] = o
		}
	}

	views := make([]domain.TableView, 0, len(tables))
	for _, t := range tables {
		v := domain.TableView{
			Table:  t,
			Status: domain.TableAvailable,
			Items:  []domain.OrderItem{},
		}
		if o, ok := byTable[t.ID]; ok {
			v.Status = domain.TableOccupied
			v.Guests = o.Guests
			if v.Guests <= 0 {
				v.Guests = 2
			}
			v.OrderID = o.ID
			v.OrderStatus = o.Status
			v.OrderTotal = o.TotalAmount
			v.Waiter = o.StaffName
			v.TimeElapsed = formatElapsed(o.CreatedAt, now)
			v.Items = append(v.Items, o.Items...)
		}
		views = append(views, v)
	}
	return views
}

// formatElapsed renders whole minutes since the order was created as
// H:MM, hours unpadded and minutes zero-padded.
func formatElapsed(createdAt, now time.Time) string {
	minutes := int(now.Sub(createdAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// Package repository is the boundary to the remote collection store.
// Every persistence, authentication and realtime operation of the floor
// plan goes through the interfaces here; the rest of the application
// never sees the backing platform's row shapes.
package repository

import (
	"context"
	"errors"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

// Collection names as used on the wire and in change notifications.
const (
	CollectionTables     = "tables"
	CollectionOrders     = "orders"
	CollectionOrderItems = "order_items"
	CollectionMenuItems  = "menu_items"
	CollectionUsers      = "users"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict is returned when a store constraint rejects a write.
	ErrConflict = errors.New("repository: conflict")
)

// TablesRepository persists floor-plan tables.
type TablesRepository interface {
	List(ctx context.Context) ([]domain.Table, error)
	Insert(ctx context.Context, table domain.Table) error
	// UpsertAll writes the full layout in one batch. Save Layout issues
	// exactly one call here regardless of how many gestures were committed.
	UpsertAll(ctx context.Context, tables []domain.Table) error
	Delete(ctx context.Context, id string) error
}

// OrdersRepository persists orders and their items.
type OrdersRepository interface {
	// ListActive returns all orders in an active status together with
	// their items, item names already resolved from the menu.
	ListActive(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	// Insert writes the order row and its items.
	Insert(ctx context.Context, order domain.Order) error
	// Update rewrites the derived totals of an existing order.
	Update(ctx context.Context, id string, totalAmount float64, guests int) error
	UpdateGuests(ctx context.Context, id string, guests int) error
	// ReplaceItems swaps the order's items wholesale (delete-all then
	// re-insert; no diffing at this item-count scale).
	ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	SetStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// Complete marks the order settled: terminal status, paid flag and
	// payment method in one write.
	Complete(ctx context.Context, id string, method domain.PaymentMethod) error
	// MoveTable re-points the order at another table (transfer).
	MoveTable(ctx context.Context, id, tableID string) error
	// Merge re-parents the source order's items onto the target order,
	// folds the source total into the target and deletes the source.
	Merge(ctx context.Context, sourceOrderID, targetOrderID string) error
}

// MenuRepository reads the menu and maintains the manual stock counters.
type MenuRepository interface {
	List(ctx context.Context) ([]domain.MenuItem, error)
	// DeductStock decrements the finished-goods counter, floored at zero.
	DeductStock(ctx context.Context, menuItemID int64, qty int) error
}

// UsersRepository resolves the current user for attribution and the
// edit-mode role gate.
type UsersRepository interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// ChangeEvent is a store change notification. It names the collection
// that changed and nothing else; consumers must re-read, never trust
// notification contents.
type ChangeEvent struct {
	Collection string
}

// ChangeFeed is the realtime publish/subscribe side of the store.
type ChangeFeed interface {
	Publish(ctx context.Context, collection string) error
	// Subscribe delivers change events until ctx is cancelled. The
	// channel is closed when the subscription ends.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// Store bundles the collection repositories of one backend.
type Store struct {
	Tables TablesRepository
	Orders OrdersRepository
	Menu   MenuRepository
	Users  UsersRepository
	Feed   ChangeFeed
}

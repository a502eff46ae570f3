package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

// MemoryStore is a full in-memory backend. It backs service tests and
// lets the server run with no database at all.
type MemoryStore struct {
	mu      sync.RWMutex
	tables  map[string]domain.Table
	orders  map[string]domain.Order
	menu    map[int64]domain.MenuItem
	users   map[string]domain.User
	feed    *MemoryChangeFeed
	nextOID int64
}

// NewMemoryStore creates an empty store with its own change feed.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:  map[string]domain.Table{},
		orders:  map[string]domain.Order{},
		menu:    map[int64]domain.MenuItem{},
		users:   map[string]domain.User{},
		feed:    NewMemoryChangeFeed(),
		nextOID: 1,
	}
}

// Store exposes the memory backend through the repository interfaces.
// The view wrappers resolve the method-name collisions between the
// per-collection interfaces.
func (s *MemoryStore) Store() Store {
	return Store{
		Tables: s,
		Orders: memoryOrdersView{s},
		Menu:   memoryMenuView{s},
		Users:  memoryUsersView{s},
		Feed:   s.feed,
	}
}

type memoryOrdersView struct{ *MemoryStore }

func (v memoryOrdersView) Insert(ctx context.Context, o domain.Order) error {
	return v.InsertOrder(ctx, o)
}

type memoryMenuView struct{ *MemoryStore }

func (v memoryMenuView) List(ctx context.Context) ([]domain.MenuItem, error) {
	return v.ListMenu(ctx)
}

type memoryUsersView struct{ *MemoryStore }

func (v memoryUsersView) Get(ctx context.Context, id string) (*domain.User, error) {
	return v.GetUser(ctx, id)
}

// Seed helpers for tests and the no-database mode.

func (s *MemoryStore) SeedTable(t domain.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.ID] = t
}

func (s *MemoryStore) SeedMenuItem(m domain.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menu[m.ID] = m
}

func (s *MemoryStore) SeedUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) SeedOrder(o domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

// OrderByID returns a copy for test assertions, or nil.
func (s *MemoryStore) OrderByID(id string) *domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.orders[id]; ok {
		return &o
	}
	return nil
}

// MenuItemByID returns a copy for test assertions, or nil.
func (s *MemoryStore) MenuItemByID(id int64) *domain.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.menu[id]; ok {
		return &m
	}
	return nil
}

// ---- TablesRepository ----

func (s *MemoryStore) List(_ context.Context) ([]domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables := make([]domain.Table, 0, len(s.tables))
	for _, t := range s.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Label < tables[j].Label })
	return tables, nil
}

func (s *MemoryStore) Insert(ctx context.Context, t domain.Table) error {
	s.mu.Lock()
	if _, exists := s.tables[t.ID]; exists {
		s.mu.Unlock()
		return ErrConflict
	}
	s.tables[t.ID] = t
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionTables)
}

func (s *MemoryStore) UpsertAll(ctx context.Context, tables []domain.Table) error {
	s.mu.Lock()
	for _, t := range tables {
		s.tables[t.ID] = t
	}
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionTables)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.tables[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.tables, id)
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionTables)
}

// ---- OrdersRepository ----

func (s *MemoryStore) ListActive(_ context.Context) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []domain.Order
	for _, o := range s.orders {
		if !o.Status.Active() {
			continue
		}
		o.Items = s.resolveNames(o.Items)
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

func (s *MemoryStore) resolveNames(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	for i := range out {
		if out[i].Name == "" {
			if m, ok := s.menu[out[i].MenuItemID]; ok {
				out[i].Name = m.Name
			} else {
				out[i].Name = "Unknown"
			}
		}
	}
	return out
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = s.resolveNames(o.Items)
	return &o, nil
}

func (s *MemoryStore) InsertOrder(ctx context.Context, o domain.Order) error {
	s.mu.Lock()
	if _, exists := s.orders[o.ID]; exists {
		s.mu.Unlock()
		return ErrConflict
	}
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	for i := range items {
		items[i].ID = s.nextOID
		items[i].OrderID = o.ID
		s.nextOID++
	}
	o.Items = items
	s.orders[o.ID] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) Update(ctx context.Context, id string, totalAmount float64, guests int) error {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.TotalAmount = totalAmount
	o.Guests = guests
	s.orders[id] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) UpdateGuests(ctx context.Context, id string, guests int) error {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.Guests = guests
	s.orders[id] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	s.mu.Lock()
	o, ok := s.orders[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.Items = nil
	for _, item := range items {
		item.ID = s.nextOID
		item.OrderID = orderID
		s.nextOID++
		o.Items = append(o.Items, item)
	}
	s.orders[orderID] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.Status = status
	s.orders[id] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) Complete(ctx context.Context, id string, method domain.PaymentMethod) error {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.Status = domain.StatusCompleted
	o.Paid = true
	o.PaymentMethod = method
	s.orders[id] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) MoveTable(ctx context.Context, id, tableID string) error {
	s.mu.Lock()
	o, ok := s.orders[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	o.TableID = tableID
	s.orders[id] = o
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

func (s *MemoryStore) Merge(ctx context.Context, sourceOrderID, targetOrderID string) error {
	s.mu.Lock()
	source, ok := s.orders[sourceOrderID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	target, ok := s.orders[targetOrderID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for _, item := range source.Items {
		item.OrderID = targetOrderID
		target.Items = append(target.Items, item)
	}
	target.TotalAmount += source.TotalAmount
	s.orders[targetOrderID] = target
	delete(s.orders, sourceOrderID)
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionOrders)
}

// ---- MenuRepository ----

func (s *MemoryStore) ListMenu(_ context.Context) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.MenuItem, 0, len(s.menu))
	for _, m := range s.menu {
		items = append(items, m)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (s *MemoryStore) DeductStock(ctx context.Context, menuItemID int64, qty int) error {
	s.mu.Lock()
	m, ok := s.menu[menuItemID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	m.Stock -= qty
	if m.Stock < 0 {
		m.Stock = 0
	}
	s.menu[menuItemID] = m
	s.mu.Unlock()
	return s.feed.Publish(ctx, CollectionMenuItems)
}

// ---- UsersRepository ----

func (s *MemoryStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// MemoryChangeFeed is an in-process ChangeFeed with buffered fan-out.
type MemoryChangeFeed struct {
	mu   sync.Mutex
	subs []chan ChangeEvent
}

func NewMemoryChangeFeed() *MemoryChangeFeed {
	return &MemoryChangeFeed{}
}

func (f *MemoryChangeFeed) Publish(_ context.Context, collection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case ch <- ChangeEvent{Collection: collection}:
		default:
			// Slow subscriber; notifications are advisory and a
			// dropped one is recovered by the next refresh trigger.
		}
	}
	return nil
}

func (f *MemoryChangeFeed) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	ch := make(chan ChangeEvent, 16)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		for i, sub := range f.subs {
			if sub == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

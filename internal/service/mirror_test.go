package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
	"github.com/ducnt198x/resbarpos/internal/repository"
)

func newTestStore() *repository.MemoryStore {
	mem := repository.NewMemoryStore()
	mem.SeedTable(domain.Table{ID: "t1", Label: "T-1", Shape: domain.ShapeSquare, X: 50, Y: 50, Width: 100, Height: 100, Seats: 4})
	mem.SeedTable(domain.Table{ID: "t2", Label: "T-2", Shape: domain.ShapeRound, X: 20, Y: 20, Width: 120, Height: 120, Seats: 6})
	return mem
}

func newTestMirror(t *testing.T, mem *repository.MemoryStore) *Mirror {
	t.Helper()
	store := mem.Store()
	m := NewMirror(store.Tables, store.Orders, zap.NewNop())
	require.NoError(t, m.Refresh(context.Background()))
	return m
}

func TestMirrorMergesActiveOrders(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{
		ID: "#100001", TableID: "t1", Status: domain.StatusCooking,
		Guests: 3, TotalAmount: 42.5, StaffName: "Minh",
		CreatedAt: time.Now().Add(-10 * time.Minute),
		Items:     []domain.OrderItem{{MenuItemID: 1, Name: "Pho", Quantity: 2, Price: 10}},
	})
	m := newTestMirror(t, mem)

	view, ok := m.Find("t1")
	require.True(t, ok)
	assert.True(t, view.Occupied())
	assert.Equal(t, "#100001", view.OrderID)
	assert.Equal(t, domain.StatusCooking, view.OrderStatus)
	assert.Equal(t, 3, view.Guests)
	assert.Equal(t, 42.5, view.OrderTotal)
	assert.Equal(t, "Minh", view.Waiter)
	require.Len(t, view.Items, 1)

	free, ok := m.Find("t2")
	require.True(t, ok)
	assert.False(t, free.Occupied())
	assert.Empty(t, free.OrderID)
}

func TestMirrorGuestsDefaultToTwo(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{ID: "#1", TableID: "t1", Status: domain.StatusPending, Guests: 0, CreatedAt: time.Now()})
	m := newTestMirror(t, mem)

	view, _ := m.Find("t1")
	assert.Equal(t, 2, view.Guests)
}

func TestMirrorEarliestOrderWins(t *testing.T) {
	mem := newTestStore()
	base := time.Now()
	mem.SeedOrder(domain.Order{ID: "#late", TableID: "t1", Status: domain.StatusPending, CreatedAt: base})
	mem.SeedOrder(domain.Order{ID: "#early", TableID: "t1", Status: domain.StatusPending, CreatedAt: base.Add(-time.Hour)})
	m := newTestMirror(t, mem)

	view, _ := m.Find("t1")
	assert.Equal(t, "#early", view.OrderID)
}

func TestMirrorElapsedFormat(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		createdAt time.Time
		want      string
	}{
		{"minutes only", now.Add(-5 * time.Minute), "0:05"},
		{"over an hour", now.Add(-125 * time.Minute), "2:05"},
		{"sub minute truncates", now.Add(-59 * time.Second), "0:00"},
		{"clock skew clamps", now.Add(2 * time.Minute), "0:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mem := newTestStore()
			mem.SeedOrder(domain.Order{ID: "#1", TableID: "t1", Status: domain.StatusReady, CreatedAt: tc.createdAt})
			m := newTestMirror(t, mem)
			m.now = func() time.Time { return now }
			require.NoError(t, m.Refresh(context.Background()))

			view, _ := m.Find("t1")
			assert.Equal(t, tc.want, view.TimeElapsed)
		})
	}
}

func TestRefreshOrdersKeepsLocalGeometry(t *testing.T) {
	mem := newTestStore()
	m := newTestMirror(t, mem)

	// Local drag in progress: geometry diverges from the store.
	require.True(t, m.SetGeometry("t1", 10, 12, 150, 150))

	// Store moves on without us: new geometry and a fresh order.
	mem.SeedTable(domain.Table{ID: "t1", Label: "T-1", X: 80, Y: 80, Width: 100, Height: 100, Seats: 4})
	mem.SeedOrder(domain.Order{ID: "#7", TableID: "t1", Status: domain.StatusPending, Guests: 2, CreatedAt: time.Now()})

	require.NoError(t, m.RefreshOrders(context.Background()))

	view, _ := m.Find("t1")
	assert.Equal(t, 10.0, view.X, "orders refresh must not clobber local geometry")
	assert.Equal(t, 12.0, view.Y)
	assert.Equal(t, 150.0, view.Width)
	assert.True(t, view.Occupied(), "occupancy still tracks the store")

	// A full refresh does adopt the store's geometry.
	require.NoError(t, m.Refresh(context.Background()))
	view, _ = m.Find("t1")
	assert.Equal(t, 80.0, view.X)
}

func TestMirrorLocalInsertRemove(t *testing.T) {
	mem := newTestStore()
	m := newTestMirror(t, mem)

	m.InsertLocal(domain.Table{ID: "t3", Label: "T-3", X: 45, Y: 45, Width: 100, Height: 100, Seats: 4})
	view, ok := m.Find("t3")
	require.True(t, ok)
	assert.False(t, view.Occupied())
	assert.Len(t, m.Snapshot(), 3)

	m.RemoveLocal("t3")
	_, ok = m.Find("t3")
	assert.False(t, ok)
}

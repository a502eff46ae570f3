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

func newTestOrderService(t *testing.T, mem *repository.MemoryStore) *OrderService {
	t.Helper()
	mem.SeedMenuItem(domain.MenuItem{ID: 1, Name: "Pho Bo", Category: "Food", Price: 12.5, Stock: 20})
	mem.SeedMenuItem(domain.MenuItem{ID: 2, Name: "Spring Rolls", Category: "Food", Price: 6, Stock: 2})
	mem.SeedMenuItem(domain.MenuItem{ID: 3, Name: "Craft IPA", Category: "Drinks", Price: 8, Stock: 0})
	mem.SeedUser(domain.User{ID: "u-staff", FullName: "Binh", Role: domain.RoleStaff})

	store := mem.Store()
	mirror := NewMirror(store.Tables, store.Orders, zap.NewNop())
	require.NoError(t, mirror.Refresh(context.Background()))

	svc := NewOrderService(store, mirror, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 19, 30, 0, 0, time.UTC) }
	svc.newOrderID = func(time.Time) string { return "#424242" }
	return svc
}

func TestConfirmNewOrder(t *testing.T) {
	mem := newTestStore()
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	menu, lines, err := svc.OpenOrderEditor(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, menu, 3)
	assert.Empty(t, lines, "free table opens with an empty cart")

	require.NoError(t, svc.AddCartItem("t1", 1))
	require.NoError(t, svc.AddCartItem("t1", 1))
	require.NoError(t, svc.AddCartItem("t1", 2))
	require.NoError(t, svc.UpdateGuestCount(ctx, "t1", 3))

	order, err := svc.ConfirmOrder(ctx, "t1", "u-staff")
	require.NoError(t, err)
	assert.Equal(t, "#424242", order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, 3, order.Guests)
	assert.Equal(t, 31.0, order.TotalAmount, "2x12.50 + 1x6.00")
	assert.Equal(t, "Binh", order.StaffName)
	assert.False(t, order.Paid)

	view, _ := svc.mirror.Find("t1")
	assert.True(t, view.Occupied())
	assert.Equal(t, "#424242", view.OrderID)

	// Confirmation drops the draft.
	_, _, err = svc.CartLines("t1")
	assert.ErrorIs(t, err, ErrNoCart)
}

func TestConfirmEmptyCartRejected(t *testing.T) {
	svc := newTestOrderService(t, newTestStore())
	ctx := context.Background()

	_, _, err := svc.OpenOrderEditor(ctx, "t1")
	require.NoError(t, err)

	_, err = svc.ConfirmOrder(ctx, "t1", "u-staff")
	assert.ErrorIs(t, err, ErrEmptyCart)

	view, _ := svc.mirror.Find("t1")
	assert.False(t, view.Occupied(), "nothing was written")
}

func TestConfirmExistingOrderEditsInPlace(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{
		ID: "#100", TableID: "t1", Status: domain.StatusCooking,
		Guests: 2, TotalAmount: 12.5, StaffName: "Minh", CreatedAt: time.Now().Add(-20 * time.Minute),
		Items: []domain.OrderItem{{MenuItemID: 1, Name: "Pho Bo", Quantity: 1, Price: 12.5}},
	})
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	_, lines, err := svc.OpenOrderEditor(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, lines, 1, "existing items preload the cart")

	require.NoError(t, svc.AddCartItem("t1", 2))
	order, err := svc.ConfirmOrder(ctx, "t1", "u-staff")
	require.NoError(t, err)

	assert.Equal(t, "#100", order.ID, "confirming an occupied table edits the existing order")
	assert.Equal(t, domain.StatusCooking, order.Status, "status is untouched by an item edit")
	assert.Equal(t, 18.5, order.TotalAmount)
	require.Len(t, order.Items, 2)
}

func TestCartRejectsSoldOutAndUnknown(t *testing.T) {
	svc := newTestOrderService(t, newTestStore())
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddCartItem("t1", 1), ErrNoCart)

	_, _, err := svc.OpenOrderEditor(ctx, "t1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.AddCartItem("t1", 3), ErrSoldOut)
	assert.ErrorIs(t, svc.AddCartItem("t1", 99), ErrUnknownMenuItem)
	assert.ErrorIs(t, svc.UpdateCartQty("t1", 1, 5), ErrUnknownMenuItem, "quantity edits need an existing line")
}

func TestCartQuantityFloorsAtOne(t *testing.T) {
	svc := newTestOrderService(t, newTestStore())
	ctx := context.Background()

	_, _, err := svc.OpenOrderEditor(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, svc.AddCartItem("t1", 1))

	require.NoError(t, svc.UpdateCartQty("t1", 1, 0))
	lines, total, err := svc.CartLines("t1")
	require.NoError(t, err)
	assert.Equal(t, 1, lines[0].Quantity, "decrementing below one idles at one")
	assert.Equal(t, 12.5, total)

	require.NoError(t, svc.UpdateCartQty("t1", 1, -4))
	lines, _, _ = svc.CartLines("t1")
	assert.Equal(t, 1, lines[0].Quantity)

	require.NoError(t, svc.RemoveCartItem("t1", 1))
	lines, total, _ = svc.CartLines("t1")
	assert.Empty(t, lines)
	assert.Zero(t, total)
}

func TestCompletePaymentDeductsStock(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{
		ID: "#200", TableID: "t1", Status: domain.StatusReady,
		Guests: 2, TotalAmount: 18, CreatedAt: time.Now().Add(-time.Hour),
		Items: []domain.OrderItem{{MenuItemID: 2, Name: "Spring Rolls", Quantity: 3, Price: 6}},
	})
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	require.NoError(t, svc.CompletePayment(ctx, "t1", domain.PayCard))

	order := mem.OrderByID("#200")
	require.NotNil(t, order)
	assert.Equal(t, domain.StatusCompleted, order.Status)
	assert.True(t, order.Paid)
	assert.Equal(t, domain.PayCard, order.PaymentMethod)

	item := mem.MenuItemByID(2)
	require.NotNil(t, item)
	assert.Equal(t, 0, item.Stock, "3 sold against a stock of 2 floors at zero")

	view, _ := svc.mirror.Find("t1")
	assert.False(t, view.Occupied(), "settled table frees up")

	assert.ErrorIs(t, svc.CompletePayment(ctx, "t1", domain.PayCash), ErrNoActiveOrder)
}

func TestCancelOrderKeepsStock(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{
		ID: "#201", TableID: "t1", Status: domain.StatusPending,
		CreatedAt: time.Now(),
		Items:     []domain.OrderItem{{MenuItemID: 1, Name: "Pho Bo", Quantity: 5, Price: 12.5}},
	})
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	require.NoError(t, svc.CancelOrder(ctx, "t1"))

	order := mem.OrderByID("#201")
	require.NotNil(t, order)
	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.False(t, order.Paid)

	item := mem.MenuItemByID(1)
	assert.Equal(t, 20, item.Stock, "cancellation never touches stock")

	view, _ := svc.mirror.Find("t1")
	assert.False(t, view.Occupied())
}

func TestTransferOrder(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{ID: "#300", TableID: "t1", Status: domain.StatusCooking, TotalAmount: 30, CreatedAt: time.Now()})
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	assert.ErrorIs(t, svc.TransferOrder(ctx, "t2", "t1"), ErrNoActiveOrder)
	assert.ErrorIs(t, svc.TransferOrder(ctx, "t1", "ghost"), ErrUnknownTable)

	require.NoError(t, svc.TransferOrder(ctx, "t1", "t2"))

	from, _ := svc.mirror.Find("t1")
	to, _ := svc.mirror.Find("t2")
	assert.False(t, from.Occupied())
	assert.True(t, to.Occupied())
	assert.Equal(t, "#300", to.OrderID, "the order keeps its identity across a transfer")
	assert.Equal(t, 30.0, to.OrderTotal)

	// Both tables occupied now blocks a transfer back.
	mem.SeedOrder(domain.Order{ID: "#301", TableID: "t1", Status: domain.StatusPending, CreatedAt: time.Now()})
	require.NoError(t, svc.mirror.RefreshOrders(ctx))
	assert.ErrorIs(t, svc.TransferOrder(ctx, "t2", "t1"), ErrTargetOccupied)
}

func TestMergeOrders(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{
		ID: "#400", TableID: "t1", Status: domain.StatusCooking, TotalAmount: 25, CreatedAt: time.Now(),
		Items: []domain.OrderItem{{MenuItemID: 1, Name: "Pho Bo", Quantity: 2, Price: 12.5}},
	})
	mem.SeedOrder(domain.Order{
		ID: "#401", TableID: "t2", Status: domain.StatusPending, TotalAmount: 6, CreatedAt: time.Now(),
		Items: []domain.OrderItem{{MenuItemID: 2, Name: "Spring Rolls", Quantity: 1, Price: 6}},
	})
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	require.NoError(t, svc.MergeOrder(ctx, "t1", "t2"))

	assert.Nil(t, mem.OrderByID("#400"), "source order is gone")
	target := mem.OrderByID("#401")
	require.NotNil(t, target)
	assert.Equal(t, 31.0, target.TotalAmount)
	assert.Len(t, target.Items, 2, "source items re-parent onto the target")

	from, _ := svc.mirror.Find("t1")
	to, _ := svc.mirror.Find("t2")
	assert.False(t, from.Occupied())
	assert.True(t, to.Occupied())

	// Merging into a table without an order is refused.
	assert.ErrorIs(t, svc.MergeOrder(ctx, "t2", "t1"), ErrTargetHasNoOrder)
}

func TestUpdateGuestCount(t *testing.T) {
	mem := newTestStore()
	mem.SeedOrder(domain.Order{ID: "#500", TableID: "t1", Status: domain.StatusPending, Guests: 2, CreatedAt: time.Now()})
	svc := newTestOrderService(t, mem)
	ctx := context.Background()

	// Occupied table: the write lands immediately, no confirmation needed.
	require.NoError(t, svc.UpdateGuestCount(ctx, "t1", 6))
	assert.Equal(t, 6, mem.OrderByID("#500").Guests)

	require.NoError(t, svc.UpdateGuestCount(ctx, "t1", 0))
	assert.Equal(t, 1, mem.OrderByID("#500").Guests, "guest count floors at one")

	// Free table with no editor open has nowhere to put the count.
	assert.ErrorIs(t, svc.UpdateGuestCount(ctx, "t2", 4), ErrNoActiveOrder)

	// Free table with an open editor stages it for confirmation.
	_, _, err := svc.OpenOrderEditor(ctx, "t2")
	require.NoError(t, err)
	require.NoError(t, svc.UpdateGuestCount(ctx, "t2", 4))
	require.NoError(t, svc.AddCartItem("t2", 1))
	order, err := svc.ConfirmOrder(ctx, "t2", "u-staff")
	require.NoError(t, err)
	assert.Equal(t, 4, order.Guests)
}

func TestTakeawayOrder(t *testing.T) {
	svc := newTestOrderService(t, newTestStore())
	ctx := context.Background()

	_, _, err := svc.OpenOrderEditor(ctx, domain.TakeawayTableID)
	require.NoError(t, err)
	require.NoError(t, svc.AddCartItem(domain.TakeawayTableID, 1))

	order, err := svc.ConfirmOrder(ctx, domain.TakeawayTableID, "u-staff")
	require.NoError(t, err)
	assert.Equal(t, domain.TakeawayTableID, order.TableID)

	// Takeaway never occupies a floor table.
	for _, v := range svc.mirror.Snapshot() {
		assert.False(t, v.Occupied())
	}
}

func TestOrderIDFormat(t *testing.T) {
	at := time.UnixMilli(1740000123456)
	assert.Equal(t, "#123456", defaultOrderID(at))
	assert.Equal(t, "#000042", defaultOrderID(time.UnixMilli(42)), "short timestamps pad to six digits")
}

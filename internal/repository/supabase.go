package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

// SupabaseClient talks to the hosted PostgREST API the original system
// ran against. Rows come back loosely typed (to-one joins are sometimes
// an object, sometimes a one-element array); each read normalizes into
// the domain DTOs immediately so nothing downstream branches on shape.
type SupabaseClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewSupabaseClient creates the REST client.
func NewSupabaseClient(baseURL, anonKey string, logger *zap.Logger) *SupabaseClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + "/rest/v1").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("apikey", anonKey).
		SetHeader("Authorization", "Bearer "+anonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-application-name", "resbar-pos")

	return &SupabaseClient{httpClient: client, logger: logger}
}

type supabaseError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *SupabaseClient) check(resp *resty.Response, op string) error {
	if resp.IsSuccess() {
		return nil
	}
	var apiErr supabaseError
	_ = json.Unmarshal(resp.Body(), &apiErr)
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode() == http.StatusConflict || apiErr.Code == "23505":
		return ErrConflict
	}
	if apiErr.Message != "" {
		return fmt.Errorf("%s: %s (status %d)", op, apiErr.Message, resp.StatusCode())
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode())
}

// ---- tables ----

// SupabaseTablesRepository tables repository over PostgREST.
type SupabaseTablesRepository struct {
	client *SupabaseClient
	feed   ChangeFeed
	logger *zap.Logger
}

func NewSupabaseTablesRepository(client *SupabaseClient, feed ChangeFeed, logger *zap.Logger) *SupabaseTablesRepository {
	return &SupabaseTablesRepository{client: client, feed: feed, logger: logger}
}

func (r *SupabaseTablesRepository) List(ctx context.Context) ([]domain.Table, error) {
	var tables []domain.Table
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetResult(&tables).
		Get("/tables")
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	if err := r.client.check(resp, "list tables"); err != nil {
		return nil, err
	}
	return tables, nil
}

func (r *SupabaseTablesRepository) Insert(ctx context.Context, t domain.Table) error {
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody([]domain.Table{t}).
		Post("/tables")
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	if err := r.client.check(resp, "insert table"); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseTablesRepository) UpsertAll(ctx context.Context, tables []domain.Table) error {
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(tables).
		Post("/tables")
	if err != nil {
		return fmt.Errorf("failed to upsert tables: %w", err)
	}
	if err := r.client.check(resp, "upsert tables"); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseTablesRepository) Delete(ctx context.Context, id string) error {
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/tables")
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if err := r.client.check(resp, "delete table"); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseTablesRepository) notify(ctx context.Context) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, CollectionTables); err != nil {
		r.logger.Warn("Failed to publish tables change", zap.Error(err))
	}
}

// ---- orders ----

// supabaseOrderItem is the wire shape of an order item with its nested
// menu_items join. The join arrives as either an object or an array.
type supabaseOrderItem struct {
	ID         int64           `json:"id"`
	OrderID    string          `json:"order_id"`
	MenuItemID int64           `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	Price      float64         `json:"price"`
	MenuItems  json.RawMessage `json:"menu_items"`
}

type supabaseOrder struct {
	ID          string              `json:"id"`
	TableID     string              `json:"table_id"`
	Status      domain.OrderStatus  `json:"status"`
	Guests      int                 `json:"guests"`
	TotalAmount float64             `json:"total_amount"`
	StaffName   string              `json:"staff_name"`
	UserID      string              `json:"user_id"`
	Paid        bool                `json:"paid"`
	Payment     string              `json:"payment_method"`
	CreatedAt   time.Time           `json:"created_at"`
	OrderItems  []supabaseOrderItem `json:"order_items"`
}

// menuItemName resolves the nested join regardless of shape.
func menuItemName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "Unknown"
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return obj.Name
	}
	var arr []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &arr); err == nil && len(arr) > 0 && arr[0].Name != "" {
		return arr[0].Name
	}
	return "Unknown"
}

func (o supabaseOrder) normalize() domain.Order {
	order := domain.Order{
		ID:            o.ID,
		TableID:       o.TableID,
		Status:        o.Status,
		Guests:        o.Guests,
		TotalAmount:   o.TotalAmount,
		StaffName:     o.StaffName,
		UserID:        o.UserID,
		Paid:          o.Paid,
		PaymentMethod: domain.PaymentMethod(o.Payment),
		CreatedAt:     o.CreatedAt,
	}
	for _, oi := range o.OrderItems {
		order.Items = append(order.Items, domain.OrderItem{
			ID:         oi.ID,
			OrderID:    o.ID,
			MenuItemID: oi.MenuItemID,
			Name:       menuItemName(oi.MenuItems),
			Quantity:   oi.Quantity,
			Price:      oi.Price,
		})
	}
	return order
}

// SupabaseOrdersRepository orders repository over PostgREST.
//
// PostgREST offers no client-side transaction, so Merge runs its three
// steps sequentially; a mid-sequence failure is surfaced and left for
// the next mirror refresh, matching the original system's behavior.
type SupabaseOrdersRepository struct {
	client *SupabaseClient
	feed   ChangeFeed
	logger *zap.Logger
}

func NewSupabaseOrdersRepository(client *SupabaseClient, feed ChangeFeed, logger *zap.Logger) *SupabaseOrdersRepository {
	return &SupabaseOrdersRepository{client: client, feed: feed, logger: logger}
}

const orderSelect = "id,table_id,status,guests,total_amount,staff_name,user_id,paid,payment_method,created_at,order_items(id,quantity,price,menu_item_id,menu_items(name))"

func (r *SupabaseOrdersRepository) ListActive(ctx context.Context) ([]domain.Order, error) {
	statuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		statuses[i] = string(s)
	}

	var raw []supabaseOrder
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", orderSelect).
		SetQueryParam("status", "in.("+strings.Join(statuses, ",")+")").
		SetResult(&raw).
		Get("/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to query active orders: %w", err)
	}
	if err := r.client.check(resp, "list active orders"); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(raw))
	for _, o := range raw {
		orders = append(orders, o.normalize())
	}
	return orders, nil
}

func (r *SupabaseOrdersRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var raw []supabaseOrder
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", orderSelect).
		SetQueryParam("id", "eq."+id).
		SetResult(&raw).
		Get("/orders")
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	if err := r.client.check(resp, "get order"); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	order := raw[0].normalize()
	return &order, nil
}

func (r *SupabaseOrdersRepository) Insert(ctx context.Context, o domain.Order) error {
	type orderRow struct {
		ID          string             `json:"id"`
		TableID     string             `json:"table_id"`
		Status      domain.OrderStatus `json:"status"`
		Guests      int                `json:"guests"`
		TotalAmount float64            `json:"total_amount"`
		StaffName   string             `json:"staff_name"`
		UserID      string             `json:"user_id"`
	}
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody([]orderRow{{
			ID: o.ID, TableID: o.TableID, Status: o.Status, Guests: o.Guests,
			TotalAmount: o.TotalAmount, StaffName: o.StaffName, UserID: o.UserID,
		}}).
		Post("/orders")
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if err := r.client.check(resp, "insert order"); err != nil {
		return err
	}
	if len(o.Items) > 0 {
		if err := r.insertItems(ctx, o.ID, o.Items); err != nil {
			return err
		}
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseOrdersRepository) insertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	type itemRow struct {
		OrderID    string  `json:"order_id"`
		MenuItemID int64   `json:"menu_item_id"`
		Quantity   int     `json:"quantity"`
		Price      float64 `json:"price"`
	}
	rows := make([]itemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, itemRow{
			OrderID: orderID, MenuItemID: item.MenuItemID,
			Quantity: item.Quantity, Price: item.Price,
		})
	}
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		Post("/order_items")
	if err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return r.client.check(resp, "insert order items")
}

func (r *SupabaseOrdersRepository) patchOrder(ctx context.Context, id string, patch map[string]any, op string) error {
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetBody(patch).
		Patch("/orders")
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if err := r.client.check(resp, op); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseOrdersRepository) Update(ctx context.Context, id string, totalAmount float64, guests int) error {
	return r.patchOrder(ctx, id, map[string]any{"total_amount": totalAmount, "guests": guests}, "update order")
}

func (r *SupabaseOrdersRepository) UpdateGuests(ctx context.Context, id string, guests int) error {
	return r.patchOrder(ctx, id, map[string]any{"guests": guests}, "update guests")
}

func (r *SupabaseOrdersRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("order_id", "eq."+orderID).
		Delete("/order_items")
	if err != nil {
		return fmt.Errorf("failed to clear order items: %w", err)
	}
	if err := r.client.check(resp, "clear order items"); err != nil {
		return err
	}
	if len(items) > 0 {
		if err := r.insertItems(ctx, orderID, items); err != nil {
			return err
		}
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseOrdersRepository) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return r.patchOrder(ctx, id, map[string]any{"status": status}, "update order status")
}

func (r *SupabaseOrdersRepository) Complete(ctx context.Context, id string, method domain.PaymentMethod) error {
	return r.patchOrder(ctx, id, map[string]any{
		"status":         domain.StatusCompleted,
		"paid":           true,
		"payment_method": method,
	}, "complete order")
}

func (r *SupabaseOrdersRepository) MoveTable(ctx context.Context, id, tableID string) error {
	return r.patchOrder(ctx, id, map[string]any{"table_id": tableID}, "move order")
}

func (r *SupabaseOrdersRepository) Merge(ctx context.Context, sourceOrderID, targetOrderID string) error {
	source, err := r.Get(ctx, sourceOrderID)
	if err != nil {
		return err
	}
	target, err := r.Get(ctx, targetOrderID)
	if err != nil {
		return err
	}

	// Step 1: re-parent the source items.
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("order_id", "eq."+sourceOrderID).
		SetBody(map[string]any{"order_id": targetOrderID}).
		Patch("/order_items")
	if err != nil {
		return fmt.Errorf("failed to re-parent order items: %w", err)
	}
	if err := r.client.check(resp, "re-parent order items"); err != nil {
		return err
	}

	// Step 2: fold the totals.
	if err := r.patchOrder(ctx, targetOrderID, map[string]any{
		"total_amount": target.TotalAmount + source.TotalAmount,
	}, "fold order total"); err != nil {
		return err
	}

	// Step 3: delete the empty source shell.
	resp, err = r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+sourceOrderID).
		Delete("/orders")
	if err != nil {
		return fmt.Errorf("failed to delete source order: %w", err)
	}
	if err := r.client.check(resp, "delete source order"); err != nil {
		return err
	}
	r.notify(ctx)
	return nil
}

func (r *SupabaseOrdersRepository) notify(ctx context.Context) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, CollectionOrders); err != nil {
		r.logger.Warn("Failed to publish orders change", zap.Error(err))
	}
}

// ---- menu ----

// SupabaseMenuRepository menu repository over PostgREST.
type SupabaseMenuRepository struct {
	client *SupabaseClient
	feed   ChangeFeed
	logger *zap.Logger
}

func NewSupabaseMenuRepository(client *SupabaseClient, feed ChangeFeed, logger *zap.Logger) *SupabaseMenuRepository {
	return &SupabaseMenuRepository{client: client, feed: feed, logger: logger}
}

func (r *SupabaseMenuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	var items []domain.MenuItem
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "id,name,category,price,stock").
		SetResult(&items).
		Get("/menu_items")
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	if err := r.client.check(resp, "list menu items"); err != nil {
		return nil, err
	}
	return items, nil
}

// DeductStock reads the current counter and writes back the floored
// result. PostgREST cannot express the arithmetic in one request.
func (r *SupabaseMenuRepository) DeductStock(ctx context.Context, menuItemID int64, qty int) error {
	var rows []domain.MenuItem
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "id,name,category,price,stock").
		SetQueryParam("id", fmt.Sprintf("eq.%d", menuItemID)).
		SetResult(&rows).
		Get("/menu_items")
	if err != nil {
		return fmt.Errorf("failed to read stock: %w", err)
	}
	if err := r.client.check(resp, "read stock"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}

	newStock := rows[0].Stock - qty
	if newStock < 0 {
		newStock = 0
	}
	resp, err = r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", fmt.Sprintf("eq.%d", menuItemID)).
		SetBody(map[string]any{"stock": newStock}).
		Patch("/menu_items")
	if err != nil {
		return fmt.Errorf("failed to write stock: %w", err)
	}
	if err := r.client.check(resp, "write stock"); err != nil {
		return err
	}
	if r.feed != nil {
		if err := r.feed.Publish(ctx, CollectionMenuItems); err != nil {
			r.logger.Warn("Failed to publish menu change", zap.Error(err))
		}
	}
	return nil
}

// ---- users ----

// SupabaseUsersRepository users repository over PostgREST.
type SupabaseUsersRepository struct {
	client *SupabaseClient
}

func NewSupabaseUsersRepository(client *SupabaseClient) *SupabaseUsersRepository {
	return &SupabaseUsersRepository{client: client}
}

func (r *SupabaseUsersRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var rows []domain.User
	resp, err := r.client.httpClient.R().
		SetContext(ctx).
		SetQueryParam("select", "id,full_name,role").
		SetQueryParam("id", "eq."+id).
		SetResult(&rows).
		Get("/users")
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if err := r.client.check(resp, "get user"); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

// PostgresOrdersRepository orders repository backed by postgres.
//
// Merge and the order+items writes run inside a single transaction, so
// the multi-step sequences the floor plan issues can never be observed
// half-applied on this backend.
type PostgresOrdersRepository struct {
	db     *sql.DB
	feed   ChangeFeed
	logger *zap.Logger
}

// NewPostgresOrdersRepository creates the repository. feed may be nil.
func NewPostgresOrdersRepository(db *sql.DB, feed ChangeFeed, logger *zap.Logger) *PostgresOrdersRepository {
	return &PostgresOrdersRepository{db: db, feed: feed, logger: logger}
}

func (r *PostgresOrdersRepository) ListActive(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, table_id, status, guests, total_amount, staff_name, user_id, created_at
		FROM orders
		WHERE status = ANY($1)
		ORDER BY created_at
	`, pq.Array(activeStatusStrings()))
	if err != nil {
		return nil, fmt.Errorf("failed to query active orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.TableID, &o.Status, &o.Guests, &o.TotalAmount,
			&o.StaffName, &o.UserID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.menu_item_id, COALESCE(mi.name, 'Unknown'), oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN menu_items mi ON mi.id = oi.menu_item_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.MenuItemID,
			&item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return orders, nil
}

func (r *PostgresOrdersRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	var method sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, table_id, status, guests, total_amount, staff_name, user_id, paid, payment_method, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&o.ID, &o.TableID, &o.Status, &o.Guests, &o.TotalAmount,
		&o.StaffName, &o.UserID, &o.Paid, &method, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	if method.Valid {
		o.PaymentMethod = domain.PaymentMethod(method.String)
	}
	return &o, nil
}

func (r *PostgresOrdersRepository) Insert(ctx context.Context, o domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, table_id, status, guests, total_amount, staff_name, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, o.ID, o.TableID, o.Status, o.Guests, o.TotalAmount, o.StaffName, o.UserID, o.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, price)
			VALUES ($1, $2, $3, $4)
		`, o.ID, item.MenuItemID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) Update(ctx context.Context, id string, totalAmount float64, guests int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET total_amount = $2, guests = $3 WHERE id = $1
	`, id, totalAmount, guests)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) UpdateGuests(ctx context.Context, id string, guests int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET guests = $2 WHERE id = $1
	`, id, guests)
	if err != nil {
		return fmt.Errorf("failed to update guests: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) ReplaceItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("failed to clear order items: %w", err)
	}
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, quantity, price)
			VALUES ($1, $2, $3, $4)
		`, orderID, item.MenuItemID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order items: %w", err)
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) SetStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) Complete(ctx context.Context, id string, method domain.PaymentMethod) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, paid = TRUE, payment_method = $3 WHERE id = $1
	`, id, domain.StatusCompleted, method)
	if err != nil {
		return fmt.Errorf("failed to complete order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) MoveTable(ctx context.Context, id, tableID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET table_id = $2 WHERE id = $1
	`, id, tableID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to move order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) Merge(ctx context.Context, sourceOrderID, targetOrderID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE order_items SET order_id = $2 WHERE order_id = $1
	`, sourceOrderID, targetOrderID); err != nil {
		return fmt.Errorf("failed to re-parent order items: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders SET total_amount = total_amount + (SELECT total_amount FROM orders WHERE id = $1)
		WHERE id = $2
	`, sourceOrderID, targetOrderID); err != nil {
		return fmt.Errorf("failed to fold order total: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, sourceOrderID)
	if err != nil {
		return fmt.Errorf("failed to delete source order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merge: %w", err)
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresOrdersRepository) notify(ctx context.Context) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, CollectionOrders); err != nil {
		r.logger.Warn("Failed to publish orders change", zap.Error(err))
	}
}

func activeStatusStrings() []string {
	statuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		statuses[i] = string(s)
	}
	return statuses
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

func setupOrdersRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresOrdersRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresOrdersRepository(db, nil, zap.NewNop())
	return db, mock, repo
}

func TestPostgresOrders_ListActive_WithItems(t *testing.T) {
	db, mock, repo := setupOrdersRepo(t)
	defer db.Close()

	created := time.Now().Add(-30 * time.Minute)
	orderRows := sqlmock.NewRows([]string{"id", "table_id", "status", "guests", "total_amount", "staff_name", "user_id", "created_at"}).
		AddRow("#100001", "t-5", "Pending", 2, 125000.0, "Anna", "u-1", created)

	mock.ExpectQuery(`SELECT id, table_id, status`).WillReturnRows(orderRows)

	itemRows := sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "quantity", "price"}).
		AddRow(1, "#100001", 7, "Latte", 2, 45000.0).
		AddRow(2, "#100001", 9, "Tea", 1, 35000.0)

	mock.ExpectQuery(`SELECT oi.id, oi.order_id`).WillReturnRows(itemRows)

	orders, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "t-5", orders[0].TableID)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "Latte", orders[0].Items[0].Name)
	assert.Equal(t, 2, orders[0].Items[0].Quantity)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrders_Insert_OrderAndItemsInOneTransaction(t *testing.T) {
	db, mock, repo := setupOrdersRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs("#100002", int64(7), 2, 45000.0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Insert(context.Background(), domain.Order{
		ID:          "#100002",
		TableID:     "t-5",
		Status:      domain.StatusPending,
		Guests:      2,
		TotalAmount: 90000,
		StaffName:   "Anna",
		UserID:      "u-1",
		CreatedAt:   time.Now(),
		Items: []domain.OrderItem{
			{MenuItemID: 7, Quantity: 2, Price: 45000},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrders_Merge_RunsInOneTransaction(t *testing.T) {
	db, mock, repo := setupOrdersRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE order_items SET order_id`).
		WithArgs("#src", "#dst").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE orders SET total_amount = total_amount`).
		WithArgs("#src", "#dst").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM orders`).
		WithArgs("#src").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Merge(context.Background(), "#src", "#dst")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrders_Merge_AbortsOnFailure(t *testing.T) {
	db, mock, repo := setupOrdersRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE order_items SET order_id`).
		WithArgs("#src", "#dst").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Merge(context.Background(), "#src", "#dst")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresOrders_Get_NotFound(t *testing.T) {
	db, mock, repo := setupOrdersRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, table_id, status`).
		WithArgs("#missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "#missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

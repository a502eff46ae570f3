package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

// PostgresMenuRepository menu repository backed by postgres.
type PostgresMenuRepository struct {
	db     *sql.DB
	feed   ChangeFeed
	logger *zap.Logger
}

// NewPostgresMenuRepository creates the repository. feed may be nil.
func NewPostgresMenuRepository(db *sql.DB, feed ChangeFeed, logger *zap.Logger) *PostgresMenuRepository {
	return &PostgresMenuRepository{db: db, feed: feed, logger: logger}
}

func (r *PostgresMenuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, price, stock
		FROM menu_items
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []domain.MenuItem
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.Price, &m.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate menu items: %w", err)
	}
	return items, nil
}

// DeductStock floors at zero so refunds or double completions can never
// drive the counter negative.
func (r *PostgresMenuRepository) DeductStock(ctx context.Context, menuItemID int64, qty int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE menu_items SET stock = GREATEST(0, stock - $2) WHERE id = $1
	`, menuItemID, qty)
	if err != nil {
		return fmt.Errorf("failed to deduct stock: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if r.feed != nil {
		if err := r.feed.Publish(ctx, CollectionMenuItems); err != nil {
			r.logger.Warn("Failed to publish menu change", zap.Error(err))
		}
	}
	return nil
}

// PostgresUsersRepository users repository backed by postgres.
type PostgresUsersRepository struct {
	db *sql.DB
}

// NewPostgresUsersRepository creates the repository.
func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

func (r *PostgresUsersRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, role FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.FullName, &u.Role)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/ducnt198x/resbarpos/internal/domain"
)

// PostgresTablesRepository tables repository backed by postgres.
type PostgresTablesRepository struct {
	db     *sql.DB
	feed   ChangeFeed
	logger *zap.Logger
}

// NewPostgresTablesRepository creates the repository. feed may be nil
// when no realtime transport is configured.
func NewPostgresTablesRepository(db *sql.DB, feed ChangeFeed, logger *zap.Logger) *PostgresTablesRepository {
	return &PostgresTablesRepository{db: db, feed: feed, logger: logger}
}

func (r *PostgresTablesRepository) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, shape, x, y, width, height, seats
		FROM tables
		ORDER BY label
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.Table
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Label, &t.Shape, &t.X, &t.Y, &t.Width, &t.Height, &t.Seats); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tables: %w", err)
	}
	return tables, nil
}

func (r *PostgresTablesRepository) Insert(ctx context.Context, t domain.Table) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tables (id, label, shape, x, y, width, height, seats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Label, t.Shape, t.X, t.Y, t.Width, t.Height, t.Seats)
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	r.notify(ctx)
	return nil
}

// UpsertAll flushes the whole layout in a single transaction.
func (r *PostgresTablesRepository) UpsertAll(ctx context.Context, tables []domain.Table) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tables (id, label, shape, x, y, width, height, seats)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				label = EXCLUDED.label,
				shape = EXCLUDED.shape,
				x = EXCLUDED.x,
				y = EXCLUDED.y,
				width = EXCLUDED.width,
				height = EXCLUDED.height,
				seats = EXCLUDED.seats
		`, t.ID, t.Label, t.Shape, t.X, t.Y, t.Width, t.Height, t.Seats)
		if err != nil {
			return fmt.Errorf("failed to upsert table %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit layout: %w", err)
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresTablesRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	r.notify(ctx)
	return nil
}

func (r *PostgresTablesRepository) notify(ctx context.Context) {
	if r.feed == nil {
		return
	}
	if err := r.feed.Publish(ctx, CollectionTables); err != nil {
		r.logger.Warn("Failed to publish tables change", zap.Error(err))
	}
}

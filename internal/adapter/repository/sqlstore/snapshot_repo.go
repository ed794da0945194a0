package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Add inserts a new snapshot
func (r *snapshotRepository) Add(ctx context.Context, snapshot *domain.Snapshot) error {
	query := r.db.rebind(`
		INSERT INTO price_snapshots (tracked_item_id, price, currency, in_stock, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)

	createdAt := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		snapshot.TrackedItemID,
		snapshot.Price.String(),
		snapshot.Currency,
		snapshot.InStock,
		createdAt,
	).Scan(&snapshot.ID)
	if err != nil {
		return unavailable("failed to insert snapshot", err)
	}
	snapshot.CreatedAt = createdAt

	return nil
}

// GetLatest retrieves the most recent snapshot for a given tracked item
func (r *snapshotRepository) GetLatest(ctx context.Context, trackedItemID int64) (*domain.Snapshot, error) {
	query := r.db.rebind(`
		SELECT id, tracked_item_id, price, currency, in_stock, created_at
		FROM price_snapshots
		WHERE tracked_item_id = ?
		ORDER BY id DESC
		LIMIT 1
	`)

	var snapshot domain.Snapshot
	var priceStr string

	err := r.db.QueryRowContext(ctx, query, trackedItemID).Scan(
		&snapshot.ID,
		&snapshot.TrackedItemID,
		&priceStr,
		&snapshot.Currency,
		&snapshot.InStock,
		&snapshot.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no snapshot found for tracked item %d: %w", trackedItemID, domain.ErrNotFound)
		}
		return nil, unavailable("failed to get latest snapshot", err)
	}

	// Parse price (DECIMAL)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}
	snapshot.Price = price

	return &snapshot, nil
}

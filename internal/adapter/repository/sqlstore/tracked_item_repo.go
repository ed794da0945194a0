package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// trackedItemRepository implements domain.TrackedItemRepository
type trackedItemRepository struct {
	db *DB
}

// NewTrackedItemRepository creates a new tracked item repository
func NewTrackedItemRepository(db *DB) domain.TrackedItemRepository {
	return &trackedItemRepository{db: db}
}

const trackedItemColumns = `id, user_id, marketplace, external_id, title, url, is_active`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrackedItem(row rowScanner) (*domain.TrackedItem, error) {
	var item domain.TrackedItem
	var title, url sql.NullString

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Marketplace,
		&item.ExternalID,
		&title,
		&url,
		&item.IsActive,
	)
	if err != nil {
		return nil, err
	}

	item.Title = stringPtr(title)
	item.URL = stringPtr(url)
	return &item, nil
}

// Add inserts the item unless the (user, marketplace, external id) combination exists.
// In both cases the stored row is loaded back into item.
func (r *trackedItemRepository) Add(ctx context.Context, item *domain.TrackedItem) error {
	insertQuery := r.db.rebind(`
		INSERT INTO tracked_items (user_id, marketplace, external_id, title, url, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, marketplace, external_id) DO NOTHING
	`)

	_, err := r.db.ExecContext(ctx, insertQuery,
		item.UserID,
		item.Marketplace,
		item.ExternalID,
		nullString(item.Title),
		nullString(item.URL),
		true,
		time.Now().UTC(),
	)
	if err != nil {
		return unavailable("failed to insert tracked item", err)
	}

	selectQuery := r.db.rebind(`
		SELECT ` + trackedItemColumns + `
		FROM tracked_items
		WHERE user_id = ? AND marketplace = ? AND external_id = ?
	`)

	stored, err := scanTrackedItem(r.db.QueryRowContext(ctx, selectQuery, item.UserID, item.Marketplace, item.ExternalID))
	if err != nil {
		return unavailable("failed to load tracked item", err)
	}

	*item = *stored
	return nil
}

// GetByID retrieves a tracked item by its ID
func (r *trackedItemRepository) GetByID(ctx context.Context, id int64) (*domain.TrackedItem, error) {
	query := r.db.rebind(`
		SELECT ` + trackedItemColumns + `
		FROM tracked_items
		WHERE id = ?
	`)

	item, err := scanTrackedItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tracked item %d: %w", id, domain.ErrNotFound)
		}
		return nil, unavailable("failed to get tracked item by ID", err)
	}

	return item, nil
}

// ListActiveByUser retrieves the active tracked items of a user
func (r *trackedItemRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*domain.TrackedItem, error) {
	query := r.db.rebind(`
		SELECT ` + trackedItemColumns + `
		FROM tracked_items
		WHERE user_id = ? AND is_active = ?
		ORDER BY id ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, userID, true)
	if err != nil {
		return nil, unavailable("failed to query tracked items", err)
	}
	defer rows.Close()

	items := make([]*domain.TrackedItem, 0)
	for rows.Next() {
		item, err := scanTrackedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating tracked items", err)
	}

	return items, nil
}

// Deactivate soft-deletes a tracked item
func (r *trackedItemRepository) Deactivate(ctx context.Context, id int64) error {
	query := r.db.rebind(`UPDATE tracked_items SET is_active = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, false, id)
	if err != nil {
		return unavailable("failed to deactivate tracked item", err)
	}
	return requireAffected(res, fmt.Sprintf("tracked item %d", id))
}

// UpdateCache stores the latest title and url reported by the catalog
func (r *trackedItemRepository) UpdateCache(ctx context.Context, id int64, title, url *string) error {
	query := r.db.rebind(`UPDATE tracked_items SET title = ?, url = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, nullString(title), nullString(url), id)
	if err != nil {
		return unavailable("failed to update tracked item cache", err)
	}
	return requireAffected(res, fmt.Sprintf("tracked item %d", id))
}

// requireAffected turns an UPDATE that matched nothing into ErrNotFound
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// userRepository implements domain.UserRepository
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := r.db.rebind(`
		INSERT INTO users (name, created_at)
		VALUES (?, ?)
		RETURNING id
	`)

	if err := r.db.QueryRowContext(ctx, query, user.Name, time.Now().UTC()).Scan(&user.ID); err != nil {
		return unavailable("failed to create user", err)
	}

	return nil
}

// GetByID retrieves a user by its ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := r.db.rebind(`SELECT id, name FROM users WHERE id = ?`)
	return r.getOne(ctx, query, id)
}

// GetByName retrieves the oldest user with the given name
func (r *userRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	query := r.db.rebind(`SELECT id, name FROM users WHERE name = ? ORDER BY id LIMIT 1`)
	return r.getOne(ctx, query, name)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %v: %w", arg, domain.ErrNotFound)
		}
		return nil, unavailable("failed to get user", err)
	}
	return &user, nil
}

// ListWithActiveItems returns the owners of at least one active tracked item
func (r *userRepository) ListWithActiveItems(ctx context.Context) ([]int64, error) {
	query := r.db.rebind(`
		SELECT DISTINCT user_id
		FROM tracked_items
		WHERE is_active = ?
		ORDER BY user_id
	`)

	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, unavailable("failed to list users", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("error iterating users", err)
	}

	return ids, nil
}

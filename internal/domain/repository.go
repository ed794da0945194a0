package domain

import "context"

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	// Create creates a new user and sets its ID
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by its ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByName retrieves the oldest user with the given name
	GetByName(ctx context.Context, name string) (*User, error)

	// ListWithActiveItems returns the IDs of users owning at least one active tracked item
	ListWithActiveItems(ctx context.Context) ([]int64, error)
}

// TrackedItemRepository defines the interface for tracked item persistence operations
type TrackedItemRepository interface {
	// Add inserts the item, or loads the existing one for the same
	// (user, marketplace, external id). The item's ID is set in both cases.
	Add(ctx context.Context, item *TrackedItem) error

	// GetByID retrieves a tracked item by its ID
	GetByID(ctx context.Context, id int64) (*TrackedItem, error)

	// ListActiveByUser retrieves the active tracked items of a user ordered by ID
	ListActiveByUser(ctx context.Context, userID int64) ([]*TrackedItem, error)

	// Deactivate flags the item inactive; history is kept
	Deactivate(ctx context.Context, id int64) error

	// UpdateCache stores the title and url last reported by the catalog
	UpdateCache(ctx context.Context, id int64, title, url *string) error
}

// RuleRepository defines the interface for rule persistence operations
type RuleRepository interface {
	// Create creates a new rule and sets its ID
	Create(ctx context.Context, rule *Rule) error

	// ListEnabledByItem retrieves the enabled rules of a tracked item ordered by ID
	ListEnabledByItem(ctx context.Context, trackedItemID int64) ([]*Rule, error)

	// UpdateLastTriggered records the snapshot that last made the rule fire
	UpdateLastTriggered(ctx context.Context, ruleID, snapshotID int64) error

	// Disable stops the rule from being evaluated
	Disable(ctx context.Context, ruleID int64) error
}

// SnapshotRepository defines the interface for snapshot persistence operations
type SnapshotRepository interface {
	// Add inserts a snapshot and sets its ID and CreatedAt
	Add(ctx context.Context, snapshot *Snapshot) error

	// GetLatest retrieves the snapshot with the highest ID for a tracked item.
	// Returns an error wrapping ErrNotFound when the item has no history.
	GetLatest(ctx context.Context, trackedItemID int64) (*Snapshot, error)
}

// AlertRepository defines the interface for triggered alert persistence operations
type AlertRepository interface {
	// Create appends a triggered alert and sets its ID and CreatedAt
	Create(ctx context.Context, alert *TriggeredAlert) error

	// ListByUser retrieves the alerts of all items owned by a user, newest first
	ListByUser(ctx context.Context, userID int64) ([]*TriggeredAlert, error)
}

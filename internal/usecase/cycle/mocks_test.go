package cycle

import (
	"context"

	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockTrackedItemRepository is a mock implementation of TrackedItemRepository for testing
type MockTrackedItemRepository struct {
	mock.Mock
}

func (m *MockTrackedItemRepository) Add(ctx context.Context, item *domain.TrackedItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockTrackedItemRepository) GetByID(ctx context.Context, id int64) (*domain.TrackedItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackedItem), args.Error(1)
}

func (m *MockTrackedItemRepository) ListActiveByUser(ctx context.Context, userID int64) ([]*domain.TrackedItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrackedItem), args.Error(1)
}

func (m *MockTrackedItemRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTrackedItemRepository) UpdateCache(ctx context.Context, id int64, title, url *string) error {
	args := m.Called(ctx, id, title, url)
	return args.Error(0)
}

// MockRuleRepository is a mock implementation of RuleRepository for testing
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *domain.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) ListEnabledByItem(ctx context.Context, trackedItemID int64) ([]*domain.Rule, error) {
	args := m.Called(ctx, trackedItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rule), args.Error(1)
}

func (m *MockRuleRepository) UpdateLastTriggered(ctx context.Context, ruleID, snapshotID int64) error {
	args := m.Called(ctx, ruleID, snapshotID)
	return args.Error(0)
}

func (m *MockRuleRepository) Disable(ctx context.Context, ruleID int64) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

// MockSnapshotRepository is a mock implementation of SnapshotRepository for testing
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Add(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotRepository) GetLatest(ctx context.Context, trackedItemID int64) (*domain.Snapshot, error) {
	args := m.Called(ctx, trackedItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

// MockAlertRepository is a mock implementation of AlertRepository for testing
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) Create(ctx context.Context, alert *domain.TriggeredAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.TriggeredAlert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TriggeredAlert), args.Error(1)
}

// catalogFunc adapts a function to domain.CatalogLookup
type catalogFunc func(ctx context.Context, marketplace, externalID string) (*domain.Observation, error)

func (f catalogFunc) Lookup(ctx context.Context, marketplace, externalID string) (*domain.Observation, error) {
	return f(ctx, marketplace, externalID)
}

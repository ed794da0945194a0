package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/simaogato/pricewatch-backend/internal/adapter/repository/sqlstore"
	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByName(ctx context.Context, name string) (*domain.User, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListWithActiveItems(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func newStoreSeeder(t *testing.T) (*Seeder, *sqlstore.DB) {
	t.Helper()
	db, err := sqlstore.NewDB(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return NewSeeder(
		sqlstore.NewUserRepository(db),
		sqlstore.NewTrackedItemRepository(db),
		sqlstore.NewRuleRepository(db),
	), db
}

func TestLoadSeedFile(t *testing.T) {
	seed, err := LoadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)

	require.Len(t, seed.Users, 2)
	alice := seed.Users[0]
	assert.Equal(t, "alice", alice.Name)
	require.Len(t, alice.Items, 2)
	assert.Equal(t, "Gaming Laptop", domain.StringValue(alice.Items[0].Title))
	require.Len(t, alice.Items[0].Rules, 2)
	assert.Equal(t, "price_below", alice.Items[0].Rules[0].Type)
	assert.Empty(t, seed.Users[1].Items[0].Rules)
}

func TestParseSeedFile(t *testing.T) {
	seed, err := ParseSeedFile(nil)
	require.NoError(t, err)
	assert.Empty(t, seed.Users)

	_, err = ParseSeedFile([]byte("users:\n  - name: alice\n    nickname: al\n"))
	assert.Error(t, err)

	_, err = LoadSeedFile("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestSeed_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	seeder, db := newStoreSeeder(t)

	seed, err := LoadSeedFile("testdata/seed.yaml")
	require.NoError(t, err)

	first, err := seeder.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 2, Items: 3, Rules: 3}, first)

	second, err := seeder.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &Summary{}, second)

	alice, err := sqlstore.NewUserRepository(db).GetByName(ctx, "alice")
	require.NoError(t, err)

	items, err := sqlstore.NewTrackedItemRepository(db).ListActiveByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ebay", items[1].Marketplace)

	rules, err := sqlstore.NewRuleRepository(db).ListEnabledByItem(ctx, items[0].ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.RuleTypePriceBelow, rules[0].Type)
	assert.True(t, rules[0].PriceBelow().Target.Equal(decimal.NewFromInt(850)))
	assert.True(t, rules[1].DropPercent().Percent.Equal(decimal.RequireFromString("12.5")))
}

func TestSeed_RejectsUnknownRuleType(t *testing.T) {
	seeder, _ := newStoreSeeder(t)
	seed := &SeedFile{Users: []SeedUser{{
		Name: "carol",
		Items: []SeedItem{{
			Marketplace: "ebay",
			ExternalID:  "EBAY-1",
			Rules:       []SeedRule{{Type: "PRICE_ABOVE"}},
		}},
	}}}

	summary, err := seeder.Seed(context.Background(), seed)
	assert.True(t, errors.Is(err, domain.ErrInvalidRuleType))
	assert.Equal(t, 1, summary.Users)
	assert.Equal(t, 1, summary.Items)
}

func TestSeed_InvalidItem(t *testing.T) {
	seeder, _ := newStoreSeeder(t)
	seed := &SeedFile{Users: []SeedUser{{Name: "dave", Items: []SeedItem{{Marketplace: "ebay"}}}}}

	_, err := seeder.Seed(context.Background(), seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external id cannot be empty")
}

func TestSeed_UserLookupFailure(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	users.On("GetByName", ctx, "alice").Return(nil, domain.ErrCollaboratorUnavailable)

	seeder := NewSeeder(users, nil, nil)
	_, err := seeder.Seed(ctx, &SeedFile{Users: []SeedUser{{Name: "alice"}}})

	assert.True(t, errors.Is(err, domain.ErrCollaboratorUnavailable))
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSeed_EmptyUserName(t *testing.T) {
	users := new(MockUserRepository)
	seeder := NewSeeder(users, nil, nil)

	_, err := seeder.Seed(context.Background(), &SeedFile{Users: []SeedUser{{Name: " "}}})
	assert.Error(t, err)
	users.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
}

func TestSeed_NonFiniteParamsAreStoredAsInvalid(t *testing.T) {
	ctx := context.Background()
	seeder, db := newStoreSeeder(t)

	seed, err := ParseSeedFile([]byte(`users:
  - name: dave
    items:
      - marketplace: ebay
        external_id: EBAY-1
        rules:
          - type: PRICE_BELOW
            params: {target: .nan}
          - type: DROP_PERCENT
            params: {percent: .inf}
`))
	require.NoError(t, err)

	summary, err := seeder.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Users: 1, Items: 1, Rules: 2}, summary)

	again, err := seeder.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, &Summary{}, again)

	dave, err := sqlstore.NewUserRepository(db).GetByName(ctx, "dave")
	require.NoError(t, err)
	items, err := sqlstore.NewTrackedItemRepository(db).ListActiveByUser(ctx, dave.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	rules, err := sqlstore.NewRuleRepository(db).ListEnabledByItem(ctx, items[0].ID)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.ParamKindInvalid, rules[0].Params[domain.ParamTarget].Kind)
	assert.True(t, rules[0].PriceBelow().Target.IsZero())
	assert.True(t, rules[1].DropPercent().Percent.IsZero())
}

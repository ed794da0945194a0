package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/simaogato/pricewatch-backend/internal/domain"
	"github.com/simaogato/pricewatch-backend/internal/usecase/cycle"
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

// MockCycleRunner is a mock implementation of CycleRunner for testing
type MockCycleRunner struct {
	mock.Mock
}

func (m *MockCycleRunner) RunCycle(ctx context.Context, userID int64) (*cycle.Result, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cycle.Result), args.Error(1)
}

func TestTick_RunsEveryUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	runner := new(MockCycleRunner)

	users.On("ListWithActiveItems", ctx).Return([]int64{1, 2, 3}, nil)
	runner.On("RunCycle", ctx, int64(1)).Return(&cycle.Result{UserID: 1}, nil)
	runner.On("RunCycle", ctx, int64(2)).Return(nil, errors.New("store down"))
	runner.On("RunCycle", ctx, int64(3)).Return(&cycle.Result{UserID: 3}, nil)

	err := NewScheduler(users, runner, time.Minute).Tick(ctx)
	require.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestTick_ListFailure(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	runner := new(MockCycleRunner)

	users.On("ListWithActiveItems", ctx).Return(nil, domain.ErrCollaboratorUnavailable)

	err := NewScheduler(users, runner, time.Minute).Tick(ctx)
	assert.True(t, errors.Is(err, domain.ErrCollaboratorUnavailable))
	runner.AssertNotCalled(t, "RunCycle", mock.Anything, mock.Anything)
}

func TestRun_RejectsNonPositiveInterval(t *testing.T) {
	err := NewScheduler(new(MockUserRepository), new(MockCycleRunner), 0).Run(context.Background())
	assert.Error(t, err)
}

// slowRunner records how many cycles run at the same time
type slowRunner struct {
	mu      sync.Mutex
	active  int
	peak    int
	calls   int
	latency time.Duration
}

func (r *slowRunner) RunCycle(ctx context.Context, userID int64) (*cycle.Result, error) {
	r.mu.Lock()
	r.active++
	r.calls++
	if r.active > r.peak {
		r.peak = r.active
	}
	r.mu.Unlock()

	time.Sleep(r.latency)

	r.mu.Lock()
	r.active--
	r.mu.Unlock()
	return &cycle.Result{UserID: userID}, nil
}

func TestRun_TicksDoNotOverlap(t *testing.T) {
	users := new(MockUserRepository)
	users.On("ListWithActiveItems", mock.Anything).Return([]int64{1}, nil)
	runner := &slowRunner{latency: 15 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := NewScheduler(users, runner, 5*time.Millisecond).Run(ctx)
	require.NoError(t, err)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Greater(t, runner.calls, 1)
	assert.Equal(t, 1, runner.peak)
}

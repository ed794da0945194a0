package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// AddTrackedItemInput represents the input for starting to track a listing
type AddTrackedItemInput struct {
	UserID      int64
	Marketplace string
	ExternalID  string
	Title       *string
	URL         *string
}

// AddRuleInput represents the input for attaching a rule to a tracked item
type AddRuleInput struct {
	TrackedItemID int64
	RuleType      string
	Params        domain.RuleParams
}

// TrackingService manages users, tracked items, rules and alert history
type TrackingService struct {
	UserRepo        domain.UserRepository
	TrackedItemRepo domain.TrackedItemRepository
	RuleRepo        domain.RuleRepository
	AlertRepo       domain.AlertRepository
}

// NewTrackingService creates a new TrackingService instance
func NewTrackingService(
	userRepo domain.UserRepository,
	trackedItemRepo domain.TrackedItemRepository,
	ruleRepo domain.RuleRepository,
	alertRepo domain.AlertRepository,
) *TrackingService {
	return &TrackingService{
		UserRepo:        userRepo,
		TrackedItemRepo: trackedItemRepo,
		RuleRepo:        ruleRepo,
		AlertRepo:       alertRepo,
	}
}

// CreateUser registers a new user
func (s *TrackingService) CreateUser(ctx context.Context, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(errors.New("user name cannot be empty"))
	}

	user := &domain.User{Name: name}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddTrackedItem starts tracking a listing for a user.
// Re-adding the same (user, marketplace, external id) returns the existing item.
// Logic:
//  1. Normalise the marketplace to lower case and validate
//  2. Ensure the user exists
//  3. Insert or load the item
func (s *TrackingService) AddTrackedItem(ctx context.Context, input AddTrackedItemInput) (*domain.TrackedItem, error) {
	item := &domain.TrackedItem{
		UserID:      input.UserID,
		Marketplace: strings.ToLower(strings.TrimSpace(input.Marketplace)),
		ExternalID:  strings.TrimSpace(input.ExternalID),
		Title:       input.Title,
		URL:         input.URL,
		IsActive:    true,
	}
	if err := item.Validate(); err != nil {
		return nil, invalid(err)
	}

	if _, err := s.UserRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}

	if err := s.TrackedItemRepo.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ListTrackedItems returns the active items of a user
func (s *TrackingService) ListTrackedItems(ctx context.Context, userID int64) ([]*domain.TrackedItem, error) {
	if userID <= 0 {
		return nil, invalid(errors.New("user id must be positive"))
	}
	return s.TrackedItemRepo.ListActiveByUser(ctx, userID)
}

// DeactivateTrackedItem stops tracking an item; its history is kept
func (s *TrackingService) DeactivateTrackedItem(ctx context.Context, trackedItemID int64) error {
	if trackedItemID <= 0 {
		return invalid(errors.New("tracked item id must be positive"))
	}
	return s.TrackedItemRepo.Deactivate(ctx, trackedItemID)
}

// AddRule attaches an enabled rule to a tracked item.
// The rule type is matched case-insensitively; unknown types are rejected.
// Parameters are stored as given: missing or non-numeric values count as zero
// when the rule is evaluated.
func (s *TrackingService) AddRule(ctx context.Context, input AddRuleInput) (*domain.Rule, error) {
	ruleType, err := domain.ParseRuleType(input.RuleType)
	if err != nil {
		return nil, err
	}

	params := input.Params
	if params == nil {
		params = domain.RuleParams{}
	}

	rule := &domain.Rule{
		TrackedItemID: input.TrackedItemID,
		Type:          ruleType,
		Params:        params,
		IsEnabled:     true,
	}
	if err := rule.Validate(); err != nil {
		return nil, invalid(err)
	}

	if _, err := s.TrackedItemRepo.GetByID(ctx, input.TrackedItemID); err != nil {
		return nil, err
	}

	if err := s.RuleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DisableRule stops a rule from being evaluated
func (s *TrackingService) DisableRule(ctx context.Context, ruleID int64) error {
	if ruleID <= 0 {
		return invalid(errors.New("rule id must be positive"))
	}
	return s.RuleRepo.Disable(ctx, ruleID)
}

// ListAlerts returns the alerts of a user, newest first
func (s *TrackingService) ListAlerts(ctx context.Context, userID int64) ([]*domain.TriggeredAlert, error) {
	if userID <= 0 {
		return nil, invalid(errors.New("user id must be positive"))
	}
	return s.AlertRepo.ListByUser(ctx, userID)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
}

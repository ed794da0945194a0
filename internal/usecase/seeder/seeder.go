package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// SeedFile is the YAML document applied at startup
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is a user and the listings it tracks
type SeedUser struct {
	Name  string     `yaml:"name"`
	Items []SeedItem `yaml:"items"`
}

// SeedItem is a tracked listing and its rules
type SeedItem struct {
	Marketplace string     `yaml:"marketplace"`
	ExternalID  string     `yaml:"external_id"`
	Title       *string    `yaml:"title"`
	URL         *string    `yaml:"url"`
	Rules       []SeedRule `yaml:"rules"`
}

// SeedRule is one rule of a seeded item
type SeedRule struct {
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params"`
}

// Summary counts what a Seed call created; existing entities are not counted
type Summary struct {
	Users int
	Items int
	Rules int
}

// LoadSeedFile reads and parses a seed file from disk
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeedFile(data)
}

// ParseSeedFile decodes a seed document. Unknown keys are rejected.
func ParseSeedFile(data []byte) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Seeder applies seed files to the store
type Seeder struct {
	UserRepo        domain.UserRepository
	TrackedItemRepo domain.TrackedItemRepository
	RuleRepo        domain.RuleRepository
}

// NewSeeder creates a new Seeder instance
func NewSeeder(
	userRepo domain.UserRepository,
	trackedItemRepo domain.TrackedItemRepository,
	ruleRepo domain.RuleRepository,
) *Seeder {
	return &Seeder{
		UserRepo:        userRepo,
		TrackedItemRepo: trackedItemRepo,
		RuleRepo:        ruleRepo,
	}
}

// Seed ensures every user, item and rule of the seed file exists.
// Logic:
//  1. Users are matched by name and created when missing
//  2. Items are added idempotently per (user, marketplace, external id)
//  3. A rule is created unless an enabled rule with the same type and params exists
//
// Applying the same file twice creates nothing the second time.
func (s *Seeder) Seed(ctx context.Context, seed *SeedFile) (*Summary, error) {
	summary := &Summary{}

	for _, seedUser := range seed.Users {
		user, err := s.ensureUser(ctx, seedUser.Name, summary)
		if err != nil {
			return summary, err
		}

		for _, seedItem := range seedUser.Items {
			item := &domain.TrackedItem{
				UserID:      user.ID,
				Marketplace: strings.ToLower(strings.TrimSpace(seedItem.Marketplace)),
				ExternalID:  strings.TrimSpace(seedItem.ExternalID),
				Title:       seedItem.Title,
				URL:         seedItem.URL,
				IsActive:    true,
			}
			if err := item.Validate(); err != nil {
				return summary, fmt.Errorf("seed item %q of user %q: %w", seedItem.ExternalID, seedUser.Name, err)
			}
			if err := s.ensureItem(ctx, item, summary); err != nil {
				return summary, err
			}

			for _, seedRule := range seedItem.Rules {
				if err := s.ensureRule(ctx, item.ID, seedRule, summary); err != nil {
					return summary, fmt.Errorf("seed rule for item %q: %w", item.ExternalID, err)
				}
			}
		}
	}

	return summary, nil
}

func (s *Seeder) ensureUser(ctx context.Context, name string, summary *Summary) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("seed user name cannot be empty")
	}

	user, err := s.UserRepo.GetByName(ctx, name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	user = &domain.User{Name: name}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	summary.Users++
	return user, nil
}

func (s *Seeder) ensureItem(ctx context.Context, item *domain.TrackedItem, summary *Summary) error {
	existing, err := s.TrackedItemRepo.ListActiveByUser(ctx, item.UserID)
	if err != nil {
		return err
	}
	found := false
	for _, e := range existing {
		if e.Marketplace == item.Marketplace && e.ExternalID == item.ExternalID {
			found = true
			break
		}
	}

	if err := s.TrackedItemRepo.Add(ctx, item); err != nil {
		return err
	}
	if !found {
		summary.Items++
	}
	return nil
}

func (s *Seeder) ensureRule(ctx context.Context, itemID int64, seedRule SeedRule, summary *Summary) error {
	ruleType, err := domain.ParseRuleType(seedRule.Type)
	if err != nil {
		return err
	}
	params := domain.RuleParamsFromMap(seedRule.Params)

	existing, err := s.RuleRepo.ListEnabledByItem(ctx, itemID)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if rule.Type == ruleType && sameParams(rule.Params, params) {
			return nil
		}
	}

	rule := &domain.Rule{
		TrackedItemID: itemID,
		Type:          ruleType,
		Params:        params,
		IsEnabled:     true,
	}
	if err := s.RuleRepo.Create(ctx, rule); err != nil {
		return err
	}
	summary.Rules++
	return nil
}

// sameParams compares the canonical JSON encodings
func sameParams(a, b domain.RuleParams) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(left, right)
}

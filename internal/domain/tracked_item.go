package domain

import (
	"errors"
	"strings"
)

// User represents the owner of tracked items
type User struct {
	ID   int64
	Name string
}

// TrackedItem represents a marketplace listing a user asked to monitor
type TrackedItem struct {
	ID          int64
	UserID      int64
	Marketplace string
	ExternalID  string
	Title       *string // cached from the last successful lookup
	URL         *string
	IsActive    bool
}

// Validate ensures the tracked item adheres to domain rules
// Returns an error if validation fails
func (t *TrackedItem) Validate() error {
	if t.UserID <= 0 {
		return errors.New("tracked item must belong to a user")
	}
	if strings.TrimSpace(t.Marketplace) == "" {
		return errors.New("tracked item marketplace cannot be empty")
	}
	if strings.TrimSpace(t.ExternalID) == "" {
		return errors.New("tracked item external id cannot be empty")
	}
	return nil
}

// StringValue dereferences an optional string, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceState is the price/stock observation the alert engine compares
type PriceState struct {
	Price    decimal.Decimal
	Currency string
	InStock  bool
}

// Snapshot represents an immutable price/stock observation of a tracked item.
// IDs are strictly increasing per store, so the highest ID is the latest snapshot.
type Snapshot struct {
	ID            int64
	TrackedItemID int64
	Price         decimal.Decimal
	Currency      string
	InStock       bool
	CreatedAt     time.Time
}

// State returns the observation carried by the snapshot
func (s *Snapshot) State() PriceState {
	return PriceState{Price: s.Price, Currency: s.Currency, InStock: s.InStock}
}

// Observation is what the catalog reports for a marketplace listing
type Observation struct {
	Marketplace string
	ExternalID  string
	Title       string
	Price       decimal.Decimal
	Currency    string
	InStock     bool
	URL         *string
}

// State returns the price/stock part of the observation
func (o *Observation) State() PriceState {
	return PriceState{Price: o.Price, Currency: o.Currency, InStock: o.InStock}
}

// Validate rejects malformed catalog responses
func (o *Observation) Validate() error {
	if o.Price.IsNegative() {
		return errors.New("observation price cannot be negative")
	}
	if strings.TrimSpace(o.Currency) == "" {
		return errors.New("observation currency cannot be empty")
	}
	return nil
}

package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/simaogato/pricewatch-backend/internal/domain"
)

// MockMarketplace is the only marketplace served by the mock catalog
const MockMarketplace = "ebay"

// Entry is one listing of the mock catalog table
type Entry struct {
	Title    string
	Price    decimal.Decimal
	Currency string
	InStock  bool
	URL      *string
}

// MockCatalog implements domain.CatalogLookup over an in-memory table.
// Unknown external IDs resolve to a fallback listing instead of failing.
type MockCatalog struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	fallback Entry
}

// NewMockCatalog creates a mock catalog seeded with the default listings
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		entries:  DefaultEntries(),
		fallback: Entry{Title: "Unknown Item", Price: decimal.NewFromInt(1000), Currency: "EUR", InStock: true},
	}
}

// DefaultEntries returns the listings the mock catalog starts with
func DefaultEntries() map[string]Entry {
	return map[string]Entry{
		"EBAY-1": {Title: "Gaming Laptop", Price: decimal.RequireFromString("899.99"), Currency: "EUR", InStock: true, URL: strPtr("https://example.com/ebay-1")},
		"EBAY-2": {Title: "Noise Cancelling Headphones", Price: decimal.RequireFromString("249.00"), Currency: "EUR", InStock: false, URL: strPtr("https://example.com/ebay-2")},
		"EBAY-3": {Title: "Smartphone", Price: decimal.RequireFromString("399.50"), Currency: "EUR", InStock: true, URL: strPtr("https://example.com/ebay-3")},
	}
}

// SetEntry replaces or adds a listing, e.g. to simulate a price change
func (c *MockCatalog) SetEntry(externalID string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[externalID] = entry
}

// Lookup resolves a listing from the table
func (c *MockCatalog) Lookup(ctx context.Context, marketplace, externalID string) (*domain.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorUnavailable, err)
	}

	mp := strings.ToLower(strings.TrimSpace(marketplace))
	if mp != MockMarketplace {
		return nil, fmt.Errorf("%w: only marketplace %q is supported in mock mode, got %q",
			domain.ErrInvalidIdentifier, MockMarketplace, marketplace)
	}
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("%w: external id cannot be empty", domain.ErrInvalidIdentifier)
	}

	c.mu.RLock()
	entry, ok := c.entries[externalID]
	c.mu.RUnlock()
	if !ok {
		entry = c.fallback
	}

	return &domain.Observation{
		Marketplace: mp,
		ExternalID:  externalID,
		Title:       entry.Title,
		Price:       entry.Price,
		Currency:    entry.Currency,
		InStock:     entry.InStock,
		URL:         entry.URL,
	}, nil
}

func strPtr(s string) *string { return &s }

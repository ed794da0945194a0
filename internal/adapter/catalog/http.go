package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/pricewatch-backend/internal/domain"
)

const priceStockPath = "/marketplace/price-stock"

// priceStockResponse is the JSON body returned by the marketplace adapter service
type priceStockResponse struct {
	Marketplace string           `json:"marketplace"`
	ExternalID  string           `json:"external_id"`
	Title       string           `json:"title"`
	Price       *decimal.Decimal `json:"price"`
	Currency    string           `json:"currency"`
	InStock     *bool            `json:"in_stock"`
	URL         *string          `json:"url"`
	Error       string           `json:"error"`
}

// HTTPCatalog implements domain.CatalogLookup against a live marketplace adapter
type HTTPCatalog struct {
	baseURL string
	client  *http.Client
}

// NewHTTPCatalog creates a catalog client.
// timeout bounds every lookup; a nil client uses a fresh http.Client.
func NewHTTPCatalog(baseURL string, timeout time.Duration, client *http.Client) *HTTPCatalog {
	if client == nil {
		client = &http.Client{}
	}
	c := *client
	c.Timeout = timeout
	return &HTTPCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &c,
	}
}

// Lookup calls GET /marketplace/price-stock and maps the response to an observation
func (c *HTTPCatalog) Lookup(ctx context.Context, marketplace, externalID string) (*domain.Observation, error) {
	if strings.TrimSpace(marketplace) == "" || strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("%w: marketplace and external id are required", domain.ErrInvalidIdentifier)
	}

	q := url.Values{}
	q.Set("marketplace", marketplace)
	q.Set("external_id", externalID)
	endpoint := c.baseURL + priceStockPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog request failed: %v", domain.ErrCollaboratorUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: catalog has no listing %s/%s", domain.ErrNotFound, marketplace, externalID)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: catalog rejected %s/%s with status %d", domain.ErrInvalidIdentifier, marketplace, externalID, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: catalog returned status %d", domain.ErrCollaboratorUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read catalog response: %v", domain.ErrCollaboratorUnavailable, err)
	}

	var payload priceStockResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed catalog response: %v", domain.ErrCollaboratorUnavailable, err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidIdentifier, payload.Error)
	}
	if payload.Price == nil || payload.InStock == nil {
		return nil, fmt.Errorf("%w: malformed catalog response: price and in_stock are required", domain.ErrCollaboratorUnavailable)
	}

	obs := &domain.Observation{
		Marketplace: marketplace,
		ExternalID:  externalID,
		Title:       payload.Title,
		Price:       *payload.Price,
		Currency:    payload.Currency,
		InStock:     *payload.InStock,
		URL:         payload.URL,
	}
	if payload.Marketplace != "" {
		obs.Marketplace = payload.Marketplace
	}
	if err := obs.Validate(); err != nil {
		return nil, errors.Join(domain.ErrCollaboratorUnavailable, fmt.Errorf("malformed catalog response: %w", err))
	}

	return obs, nil
}

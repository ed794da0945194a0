package domain

import "context"

// CatalogLookup resolves a marketplace listing to its current state.
// Failures wrap ErrNotFound, ErrInvalidIdentifier or ErrCollaboratorUnavailable.
type CatalogLookup interface {
	Lookup(ctx context.Context, marketplace, externalID string) (*Observation, error)
}

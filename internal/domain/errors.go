package domain

import "errors"

// Sentinel errors shared by adapters and use cases.
// Adapters wrap them with context so callers can match with errors.Is.
var (
	// ErrNotFound is returned when a requested entity or catalog record does not exist
	ErrNotFound = errors.New("not found")

	// ErrCollaboratorUnavailable covers unreachable stores and catalogs, including timeouts
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrInvalidIdentifier is returned by the catalog for identifiers it cannot serve
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidRuleType is returned when creating a rule with a type outside the enumeration
	ErrInvalidRuleType = errors.New("invalid rule type")

	// ErrInvalidInput is returned by use cases when request data fails validation
	ErrInvalidInput = errors.New("invalid input")
)

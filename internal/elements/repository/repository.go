package repository

import (
	"context"

	"analytics-pipeline/ingestcore/internal/elements/domain"
)

// Repository defines the durable tier for element chains.
type Repository interface {
	// FetchByHash returns the chain stored for (teamID, hash) ordered by its
	// original position, or an empty slice when no rows exist. Absence is not
	// an error.
	FetchByHash(ctx context.Context, teamID int64, hash string) ([]domain.Element, error)
	// CreateGroup stores the chain under (teamID, hash) unless the group
	// already exists (content-addressed, so an existing group is identical).
	// Returns true when a new group was created.
	CreateGroup(ctx context.Context, teamID int64, hash string, chain []domain.Element) (bool, error)
}

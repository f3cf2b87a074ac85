package repository

import (
	"context"

	"swapspot/internal/domain/entity"
)

// ListingRepository is read-only from the realtime core's perspective;
// listing CRUD lives with the marketplace surface.
type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
}

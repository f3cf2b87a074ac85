package repository

import (
	"context"

	"swapspot/internal/domain/entity"
)

// ErrPreconditionFailed is reported by UpdateStatus when the stored status
// no longer matches the expected one at commit time. Callers translate it
// into an InvalidTransition error naming the attempted action.
type PreconditionError struct {
	CurrentStatus string
}

func (e *PreconditionError) Error() string {
	return "swap status precondition failed, current status: " + e.CurrentStatus
}

// StatusUpdate carries the mutable fields a transition may set alongside the
// status change. Nil pointers leave the stored value untouched.
type StatusUpdate struct {
	ConfirmationCode *string
}

type SwapRepository interface {
	Create(ctx context.Context, swap *entity.Swap) error
	GetByID(ctx context.Context, id string) (*entity.Swap, error)
	ListByUserID(ctx context.Context, userID, statusFilter string) ([]*entity.Swap, error)

	// FindPendingByListings returns a pending swap over the same unordered
	// listing pair, or NOT_FOUND.
	FindPendingByListings(ctx context.Context, listingAID, listingBID string) (*entity.Swap, error)

	// UpdateStatus atomically moves the swap from expected to next,
	// applying extra field changes in the same write. When the stored
	// status differs from expected it fails with *PreconditionError and
	// leaves the swap untouched.
	UpdateStatus(ctx context.Context, id, expected, next string, update StatusUpdate) (*entity.Swap, error)
}

package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"swapspot/internal/domain/entity"
	"swapspot/internal/domain/repository"
	"swapspot/pkg/errors"
)

type firestoreSwapRepository struct {
	client *firestore.Client
}

func NewFirestoreSwapRepository(client *firestore.Client) repository.SwapRepository {
	return &firestoreSwapRepository{
		client: client,
	}
}

func (r *firestoreSwapRepository) Create(ctx context.Context, swap *entity.Swap) error {
	if swap.ID == "" {
		swap.ID = uuid.New().String()
	}

	now := time.Now()
	swap.CreatedAt = now
	swap.UpdatedAt = now

	_, err := r.client.Collection("swaps").Doc(swap.ID).Set(ctx, swap)
	if err != nil {
		return errors.Internal("Failed to create swap", err)
	}

	return nil
}

func (r *firestoreSwapRepository) GetByID(ctx context.Context, id string) (*entity.Swap, error) {
	doc, err := r.client.Collection("swaps").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Swap", nil)
		}
		return nil, errors.Internal("Failed to get swap", err)
	}

	var swap entity.Swap
	if err := doc.DataTo(&swap); err != nil {
		return nil, errors.Internal("Failed to parse swap data", err)
	}

	return &swap, nil
}

func (r *firestoreSwapRepository) ListByUserID(ctx context.Context, userID, statusFilter string) ([]*entity.Swap, error) {
	// Firestore has no OR queries across fields; run both sides and merge
	var swaps []*entity.Swap
	seen := make(map[string]bool)

	for _, field := range []string{"proposerId", "recipientId"} {
		query := r.client.Collection("swaps").Where(field, "==", userID)
		if statusFilter != "" {
			query = query.Where("status", "==", statusFilter)
		}

		iter := query.Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return nil, errors.Internal("Failed to query swaps", err)
			}

			var swap entity.Swap
			if err := doc.DataTo(&swap); err != nil {
				continue // Skip malformed documents
			}
			if seen[swap.ID] {
				continue
			}
			seen[swap.ID] = true
			swaps = append(swaps, &swap)
		}
	}

	return swaps, nil
}

func (r *firestoreSwapRepository) FindPendingByListings(ctx context.Context, listingAID, listingBID string) (*entity.Swap, error) {
	// The pair is unordered: check both orientations
	for _, pair := range [][2]string{{listingAID, listingBID}, {listingBID, listingAID}} {
		query := r.client.Collection("swaps").
			Where("listingAId", "==", pair[0]).
			Where("listingBId", "==", pair[1]).
			Where("status", "==", entity.SwapStatusPending).
			Limit(1)

		iter := query.Documents(ctx)
		doc, err := iter.Next()
		if err == iterator.Done {
			continue
		}
		if err != nil {
			return nil, errors.Internal("Failed to query pending swaps", err)
		}

		var swap entity.Swap
		if err := doc.DataTo(&swap); err != nil {
			return nil, errors.Internal("Failed to parse swap data", err)
		}
		return &swap, nil
	}

	return nil, errors.NotFound("Pending swap", nil)
}

// UpdateStatus is the conditional write every transition goes through. The
// status check and the write happen inside one Firestore transaction, so
// two racing transitions on the same swap can never both pass the check.
func (r *firestoreSwapRepository) UpdateStatus(ctx context.Context, id, expected, next string, update repository.StatusUpdate) (*entity.Swap, error) {
	ref := r.client.Collection("swaps").Doc(id)

	var updated entity.Swap

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Swap", nil)
			}
			return errors.Internal("Failed to get swap", err)
		}

		var swap entity.Swap
		if err := doc.DataTo(&swap); err != nil {
			return errors.Internal("Failed to parse swap data", err)
		}

		if swap.Status != expected {
			return &repository.PreconditionError{CurrentStatus: swap.Status}
		}

		now := time.Now()
		swap.Status = next
		swap.UpdatedAt = now
		if update.ConfirmationCode != nil {
			swap.ConfirmationCode = *update.ConfirmationCode
		}
		if next == entity.SwapStatusCompleted {
			swap.CompletedAt = &now
		}

		updated = swap
		return tx.Set(ref, &swap)
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

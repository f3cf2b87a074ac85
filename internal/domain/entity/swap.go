package entity

import "time"

// Swap lifecycle states. pending moves to accepted or rejected; accepted to
// inProgress; inProgress to completed. rejected and completed are terminal.
const (
	SwapStatusPending    = "pending"
	SwapStatusAccepted   = "accepted"
	SwapStatusRejected   = "rejected"
	SwapStatusInProgress = "inProgress"
	SwapStatusCompleted  = "completed"
)

// Swap is a proposed barter between two listings. Exactly one proposer and
// one recipient, distinct users. Swaps are never deleted; only Status and
// ConfirmationCode change after creation.
type Swap struct {
	ID               string     `json:"id" firestore:"id"`
	ListingAID       string     `json:"listing_a_id" firestore:"listingAId"`
	ListingBID       string     `json:"listing_b_id" firestore:"listingBId"`
	ProposerID       string     `json:"proposer_id" firestore:"proposerId"`
	RecipientID      string     `json:"recipient_id" firestore:"recipientId"`
	Status           string     `json:"status" firestore:"status"`
	PartialCash      float64    `json:"partial_cash,omitempty" firestore:"partialCash,omitempty"`
	PickupTime       time.Time  `json:"pickup_time" firestore:"pickupTime"`
	Note             string     `json:"note,omitempty" firestore:"note,omitempty"`
	ConfirmationCode string     `json:"-" firestore:"confirmationCode,omitempty"`
	CreatedAt        time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time  `json:"updated_at" firestore:"updatedAt"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
}

package entity

import "time"

// Listing is owned by the marketplace CRUD surface; the realtime core only
// reads it to validate swaps and render listing-card messages.
type Listing struct {
	ID          string    `json:"id" firestore:"id"`
	OwnerID     string    `json:"owner_id" firestore:"ownerId"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
	Price       float64   `json:"price,omitempty" firestore:"price,omitempty"`
	Latitude    float64   `json:"latitude" firestore:"latitude"`
	Longitude   float64   `json:"longitude" firestore:"longitude"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}

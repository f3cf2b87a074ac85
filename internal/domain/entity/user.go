package entity

import "time"

// User mirrors an identity issued by the external provider. Records are
// upserted on first contact and refreshed opportunistically; the provider
// stays the source of truth.
type User struct {
	ID          string    `json:"id" firestore:"id"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Email       string    `json:"email" firestore:"email"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

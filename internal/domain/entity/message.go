package entity

import "time"

// Message kinds. Structured payloads carry their reference in a typed field
// (SwapID, ListingID) instead of convention-parsed content.
const (
	MessageTypeText         = "text"
	MessageTypeListingCard  = "listingCard"
	MessageTypeSwapProposal = "swapProposal"
)

// Message is immutable once created and strictly ordered by CreatedAt
// within its chat.
type Message struct {
	ID        string    `json:"id" firestore:"id"`
	ChatID    string    `json:"chat_id" firestore:"chatId"`
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Type      string    `json:"type" firestore:"type"`
	Content   string    `json:"content" firestore:"content"`
	SwapID    string    `json:"swap_id,omitempty" firestore:"swapId,omitempty"`
	ListingID string    `json:"listing_id,omitempty" firestore:"listingId,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// ValidMessageType reports whether t is one of the known message kinds.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeListingCard, MessageTypeSwapProposal:
		return true
	}
	return false
}

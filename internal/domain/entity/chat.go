package entity

import "time"

// ChatMember is a membership record inside a chat. Role is an open string
// ("member" today) so future roles don't need a schema change.
type ChatMember struct {
	UserID   string    `json:"user_id" firestore:"userId"`
	Role     string    `json:"role" firestore:"role"`
	JoinedAt time.Time `json:"joined_at" firestore:"joinedAt"`
}

const MemberRoleDefault = "member"

// Chat is a durable conversation thread. A chat with IsGroup=false holds
// exactly one unordered pair of users and at most one such chat exists per
// pair. Chats are never deleted.
type Chat struct {
	ID            string       `json:"id" firestore:"id"`
	IsGroup       bool         `json:"is_group" firestore:"isGroup"`
	BuildingID    string       `json:"building_id,omitempty" firestore:"buildingId,omitempty"`
	Members       []ChatMember `json:"members" firestore:"members"`
	LastMessage   string       `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time    `json:"last_message_at" firestore:"lastMessageAt"`
	CreatedAt     time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time    `json:"updated_at" firestore:"updatedAt"`
}

// HasMember reports whether userID is a member of the chat.
func (c *Chat) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// MemberIDs returns the member user ids in membership order.
func (c *Chat) MemberIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
